package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// Runner executes a command in dir with extra environment variables and
// returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	return f(ctx, dir, env, name, args...)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.Bytes(), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return stdout.Bytes(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return stdout.Bytes(), nil
}

// GitLog uses a git work tree as the history log. Revision dates are passed
// through GIT_AUTHOR_DATE and GIT_COMMITTER_DATE.
type GitLog struct {
	dir    string
	binary string
	runner Runner
	mu     sync.Mutex
	staged []string
}

var (
	_ interfaces.HistoryLog    = (*GitLog)(nil)
	_ interfaces.HistoryLister = (*GitLog)(nil)
)

// GitOption customises a GitLog.
type GitOption func(*GitLog)

// WithRunner overrides the command runner.
func WithRunner(r Runner) GitOption {
	return func(g *GitLog) {
		if r != nil {
			g.runner = r
		}
	}
}

// WithGitBinary overrides the git executable.
func WithGitBinary(binary string) GitOption {
	return func(g *GitLog) {
		if binary != "" {
			g.binary = binary
		}
	}
}

// NewGitLog returns a log over the work tree at dir.
func NewGitLog(dir string, opts ...GitOption) *GitLog {
	g := &GitLog{dir: dir, binary: "git", runner: ExecRunner{}}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *GitLog) git(ctx context.Context, env []string, args ...string) ([]byte, error) {
	return g.runner.Run(ctx, g.dir, env, g.binary, args...)
}

func (g *GitLog) Exists(ctx context.Context, p string) (bool, error) {
	out, err := g.git(ctx, nil, "log", "--pretty=format:%H", "--follow", "--", p)
	if err != nil {
		if noCommitsYet(err) {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func (g *GitLog) Stage(ctx context.Context, p string) error {
	if _, err := g.git(ctx, nil, "add", "--", p); err != nil {
		return err
	}
	g.mu.Lock()
	g.staged = appendUnique(g.staged, p)
	g.mu.Unlock()
	return nil
}

func (g *GitLog) Commit(ctx context.Context, message string, authorTime, committerTime time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	staged := g.staged
	g.staged = nil
	if len(staged) == 0 {
		return ErrNothingStaged
	}
	env := []string{
		"GIT_AUTHOR_DATE=" + gitDate(authorTime),
		"GIT_COMMITTER_DATE=" + gitDate(committerTime),
	}
	args := append([]string{"commit", "-m", message, "--"}, staged...)
	if _, err := g.git(ctx, env, args...); err != nil {
		// A failed commit leaves nothing staged for the next one.
		reset := append([]string{"reset", "-q", "--"}, staged...)
		if _, resetErr := g.git(context.WithoutCancel(ctx), nil, reset...); resetErr != nil {
			return errors.Join(err, resetErr)
		}
		return err
	}
	return nil
}

// Tracked lists every path under the work dir touched by a commit reachable
// from HEAD, relative to that dir.
func (g *GitLog) Tracked(ctx context.Context) (map[string]struct{}, error) {
	out, err := g.git(ctx, nil, "log", "--relative", "--pretty=format:", "--name-only")
	if err != nil {
		if noCommitsYet(err) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	set := make(map[string]struct{})
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = struct{}{}
		}
	}
	return set, nil
}

func noCommitsYet(err error) bool {
	return strings.Contains(err.Error(), "does not have any commits yet")
}

// gitDate uses git's internal "<unix seconds> <offset>" format so the value
// is read as UTC regardless of the local zone.
func gitDate(t time.Time) string {
	return fmt.Sprintf("%d +0000", t.Unix())
}
