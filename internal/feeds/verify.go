package feeds

import (
	"errors"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// ErrFeedMismatch is returned when a rendered feed does not parse back into
// the entries it was built from.
var ErrFeedMismatch = errors.New("feeds: rendered document does not match its entries")

// Verify parses the rendered document with a standard feed parser and checks
// that every entry survives in order with its identifier.
func Verify(doc Document) error {
	parsed, err := gofeed.NewParser().ParseString(string(doc.XML()))
	if err != nil {
		return fmt.Errorf("feeds: parse %s: %w", doc.File, err)
	}
	if parsed.FeedType != "atom" {
		return fmt.Errorf("%w: feed type %q", ErrFeedMismatch, parsed.FeedType)
	}
	if len(parsed.Items) != len(doc.Entries) {
		return fmt.Errorf("%w: %d entries rendered, %d parsed", ErrFeedMismatch, len(doc.Entries), len(parsed.Items))
	}
	for i, item := range parsed.Items {
		if item.GUID != doc.Entries[i].ID {
			return fmt.Errorf("%w: entry %d id %q, parsed %q", ErrFeedMismatch, i, doc.Entries[i].ID, item.GUID)
		}
	}
	return nil
}
