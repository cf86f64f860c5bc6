package feeds

import "strings"

// Author is the fixed author block emitted on the feed and on every entry.
type Author struct {
	Name  string `json:"name" mapstructure:"name"`
	Email string `json:"email" mapstructure:"email"`
	URI   string `json:"uri" mapstructure:"uri"`
}

// Metadata carries the feed-level attributes shared by every variant.
type Metadata struct {
	Title            string `json:"title" mapstructure:"title"`
	Subtitle         string `json:"subtitle" mapstructure:"subtitle"`
	ID               string `json:"id" mapstructure:"id"`
	AlternateLink    string `json:"alternate_link" mapstructure:"alternate_link"`
	SelfBase         string `json:"self_base" mapstructure:"self_base"`
	Icon             string `json:"icon" mapstructure:"icon"`
	Logo             string `json:"logo" mapstructure:"logo"`
	RightsHolder     string `json:"rights_holder" mapstructure:"rights_holder"`
	Generator        string `json:"generator" mapstructure:"generator"`
	GeneratorURI     string `json:"generator_uri" mapstructure:"generator_uri"`
	GeneratorVersion string `json:"generator_version" mapstructure:"generator_version"`
	// ArticleURL is the public page of an article; "{id}" is replaced with
	// the article identifier.
	ArticleURL      string `json:"article_url" mapstructure:"article_url"`
	DefaultCategory string `json:"default_category" mapstructure:"default_category"`
	Author          Author `json:"author" mapstructure:"author"`
}

const repositoryBase = "https://raw.githubusercontent.com/TheLovinator1/wutheringwaves/refs/heads/master/"

// DefaultMetadata returns the production feed metadata.
func DefaultMetadata() Metadata {
	return Metadata{
		Title:            "Wuthering Waves Articles",
		Subtitle:         "Latest articles from Wuthering Waves",
		ID:               "urn:wutheringwaves:feed",
		AlternateLink:    "https://wutheringwaves.kurogames.com/en/main/news/",
		SelfBase:         repositoryBase,
		Icon:             repositoryBase + "logo.png",
		Logo:             repositoryBase + "logo.png",
		RightsHolder:     "Wuthering Waves",
		Generator:        "feedmirror",
		GeneratorURI:     "https://github.com/goliatone/go-feedmirror",
		GeneratorVersion: "1.0",
		ArticleURL:       "https://wutheringwaves.kurogames.com/en/main/news/detail/{id}",
		DefaultCategory:  "Wuthering Waves",
		Author: Author{
			Name:  "Wuthering Waves",
			Email: "wutheringwaves_ensupport@kurogames.com",
			URI:   "https://wutheringwaves.kurogames.com",
		},
	}
}

// ArticleLink resolves the public URL for id. Articles without id link to
// the alternate page.
func (m Metadata) ArticleLink(id string) string {
	if strings.TrimSpace(id) == "" || m.ArticleURL == "" {
		return m.AlternateLink
	}
	return strings.ReplaceAll(m.ArticleURL, "{id}", id)
}

// SelfLink returns the published location of the feed file.
func (m Metadata) SelfLink(file string) string {
	if m.SelfBase == "" || file == "" {
		return ""
	}
	return strings.TrimRight(m.SelfBase, "/") + "/" + strings.TrimLeft(file, "/")
}
