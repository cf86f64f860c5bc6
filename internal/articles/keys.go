package articles

// Wire keys used by the remote CMS payloads.
const (
	KeyID           = "articleId"
	KeyTitle        = "articleTitle"
	KeyContent      = "articleContent"
	KeyDesc         = "articleDesc"
	KeyTypeName     = "articleTypeName"
	KeyCreateTime   = "createTime"
	KeySortingMark  = "sortingMark"
	KeySuggestCover = "suggestCover"
	KeyTop          = "top"
)

// EnrichmentKeys lists the index fields copied into article records when the
// record does not define them yet.
var EnrichmentKeys = []string{
	KeyDesc,
	KeyCreateTime,
	KeySortingMark,
	KeySuggestCover,
	KeyTop,
}
