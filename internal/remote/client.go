// Package remote talks to the CMS: the article index and the per-article
// documents.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-feedmirror/internal/articles"
	"github.com/goliatone/go-feedmirror/internal/failures"
	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/internal/validation"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// DefaultBaseURL is the production CMS endpoint.
const DefaultBaseURL = "https://hw-media-cdn-mingchao.kurogame.com/akiwebsite/website2.0/json/G152/en"

// ErrIndexUnavailable marks an index that cannot be used for planning.
var ErrIndexUnavailable = errors.New("remote: index unavailable")

// ErrEmptyPayload marks a response without content.
var ErrEmptyPayload = errors.New("remote: empty payload")

// Result is the outcome of fetching one article.
type Result struct {
	ID     string
	Record articles.Record
	Err    error
}

// Client fetches the index and article documents.
type Client struct {
	base     string
	fetcher  interfaces.Fetcher
	now      func() time.Time
	validate bool
	logger   interfaces.Logger

	once  sync.Once
	stamp string
}

// Option customises a Client.
type Option func(*Client)

// WithClock sets the clock used for the cache-busting query parameter.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSchemaValidation toggles JSON schema checks on payloads.
func WithSchemaValidation(enabled bool) Option {
	return func(c *Client) {
		c.validate = enabled
	}
}

// NewClient returns a client for base using fetcher.
func NewClient(base string, fetcher interfaces.Fetcher, opts ...Option) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		fetcher:  fetcher,
		now:      time.Now,
		validate: true,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// cacheBuster is taken once per client so every request of a run shares it.
func (c *Client) cacheBuster() string {
	c.once.Do(func() {
		c.stamp = strconv.FormatInt(c.now().UnixMilli(), 10)
	})
	return c.stamp
}

// IndexURL returns the index location.
func (c *Client) IndexURL() string {
	return c.base + "/ArticleMenu.json?t=" + c.cacheBuster()
}

// ArticleURL returns the document location for id.
func (c *Client) ArticleURL(id string) string {
	return c.base + "/article/" + url.PathEscape(id) + ".json?t=" + c.cacheBuster()
}

// FetchIndex retrieves and decodes the index. It also returns the raw
// payload for the snapshot. Every failure is fatal for the run.
func (c *Client) FetchIndex(ctx context.Context) ([]articles.IndexEntry, []byte, error) {
	target := c.IndexURL()
	raw, err := c.fetcher.Get(ctx, target)
	if err != nil {
		return nil, nil, failures.FatalIndex(fmt.Errorf("%w: %w", ErrIndexUnavailable, err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, failures.FatalIndex(fmt.Errorf("%w: %w", ErrIndexUnavailable, ErrEmptyPayload))
	}
	if c.validate {
		if err := validation.ValidateIndex(raw); err != nil {
			return nil, nil, failures.FatalIndex(fmt.Errorf("%w: %w", ErrIndexUnavailable, err))
		}
	}
	index, err := articles.DecodeIndex(raw)
	if err != nil {
		return nil, nil, failures.FatalIndex(fmt.Errorf("%w: %w", ErrIndexUnavailable, err))
	}
	c.logger.Info("remote.index_fetched", "entries", len(index), "bytes", len(raw))
	return index, raw, nil
}

// FetchArticle retrieves the document for id. Empty documents are failures.
func (c *Client) FetchArticle(ctx context.Context, id string) (articles.Record, error) {
	target := c.ArticleURL(id)
	raw, err := c.fetcher.Get(ctx, target)
	if err != nil {
		return articles.Record{}, failures.Fetch(target, err)
	}
	if c.validate && len(bytes.TrimSpace(raw)) > 0 && string(bytes.TrimSpace(raw)) != "null" {
		if err := validation.ValidateArticle(raw); err != nil {
			return articles.Record{}, failures.Fetch(target, err)
		}
	}
	record, err := articles.DecodeRecord(raw)
	if err != nil {
		return articles.Record{}, failures.Fetch(target, err)
	}
	return record, nil
}

// FetchArticles retrieves every id concurrently. Results are positional and
// one failure never affects the other ids.
func (c *Client) FetchArticles(ctx context.Context, ids []string) []Result {
	results := make([]Result, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			record, err := c.FetchArticle(ctx, id)
			results[i] = Result{ID: id, Record: record, Err: err}
			if err != nil {
				logging.WithArticleContext(c.logger, id, "fetch").Warn("remote.article_failed", "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
