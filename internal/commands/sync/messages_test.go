package synccmd

import "testing"

func TestBuildFeedsCommandValidateWindow(t *testing.T) {
	if err := (BuildFeedsCommand{Window: -1}).Validate(); err == nil {
		t.Fatal("expected error for negative window")
	}
	for _, window := range []int{0, 5} {
		if err := (BuildFeedsCommand{Window: window}).Validate(); err != nil {
			t.Fatalf("unexpected error for window %d: %v", window, err)
		}
	}
}

func TestReplayHistoryCommandValidateIDs(t *testing.T) {
	if err := (ReplayHistoryCommand{}).Validate(); err != nil {
		t.Fatalf("unexpected error for empty ids: %v", err)
	}
	if err := (ReplayHistoryCommand{IDs: []string{"1", " "}}).Validate(); err == nil {
		t.Fatal("expected error for blank id")
	}
	if err := (ReplayHistoryCommand{IDs: []string{"1", "2"}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMessageTypes(t *testing.T) {
	cases := map[string]string{
		SyncMirrorCommand{}.Type():    "feedmirror.sync.mirror",
		BuildFeedsCommand{}.Type():    "feedmirror.sync.build_feeds",
		ReplayHistoryCommand{}.Type(): "feedmirror.sync.replay_history",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
