package synccmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	syncMirrorMessageType    = "feedmirror.sync.mirror"
	buildFeedsMessageType    = "feedmirror.sync.build_feeds"
	replayHistoryMessageType = "feedmirror.sync.replay_history"
)

// SyncMirrorCommand runs a full mirror pass: index, new articles,
// enrichment, derived outputs, feeds and history.
type SyncMirrorCommand struct {
	// DryRun records history in memory instead of the configured log.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (SyncMirrorCommand) Type() string { return syncMirrorMessageType }

// Validate implements command.Message.
func (SyncMirrorCommand) Validate() error { return nil }

// BuildFeedsCommand republishes the feeds from the local mirror.
type BuildFeedsCommand struct {
	// Window overrides the bounded feed size when positive.
	Window int `json:"window,omitempty"`
}

// Type implements command.Message.
func (BuildFeedsCommand) Type() string { return buildFeedsMessageType }

// Validate rejects negative windows.
func (cmd BuildFeedsCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Window, validation.By(func(value any) error {
			if window, _ := value.(int); window < 0 {
				return validation.NewError("feedmirror.sync.build_feeds.window_invalid", "window must be zero or positive")
			}
			return nil
		})),
	)
}

// ReplayHistoryCommand drives mirrored records through the history writer.
// An empty IDs list replays every record.
type ReplayHistoryCommand struct {
	IDs []string `json:"ids,omitempty"`
}

// Type implements command.Message.
func (ReplayHistoryCommand) Type() string { return replayHistoryMessageType }

// Validate ensures listed ids are not blank.
func (cmd ReplayHistoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.IDs, validation.Each(validation.By(func(value any) error {
			id, _ := value.(string)
			if strings.TrimSpace(id) == "" {
				return validation.NewError("feedmirror.sync.replay_history.id_required", "id must not be blank")
			}
			return nil
		}))),
	)
}
