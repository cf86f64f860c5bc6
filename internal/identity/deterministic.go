package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const (
	articleURNPrefix = "urn:article:"
	unknownPrefix    = "unknown-"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
// Callers prefix keys by domain to avoid collisions across entity kinds.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ArticleURN returns the stable feed identifier for an article. Articles
// without an id get a fallback derived from title and createTime, so the
// same input always yields the same URN. Editing either field changes the
// fallback.
func ArticleURN(id, title, createTime string) string {
	if id = strings.TrimSpace(id); id != "" {
		return articleURNPrefix + id
	}
	key := "feedmirror:article:" + strings.TrimSpace(title) + "\x00" + strings.TrimSpace(createTime)
	return articleURNPrefix + unknownPrefix + UUID(key).String()
}

// IsFallbackURN reports whether urn was produced for an article without id.
func IsFallbackURN(urn string) bool {
	return strings.HasPrefix(urn, articleURNPrefix+unknownPrefix)
}
