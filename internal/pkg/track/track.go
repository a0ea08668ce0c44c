package track

import (
	"context"
	"log/slog"
)

// Event carries the ids bound at provisioning time.
type Event struct {
	AccountID string
	TeamID    string
	TmbID     string
	SourceIP  string
}

// Tracker emits post-commit account lifecycle events. These run after the
// provisioning transaction returns; implementations must be best-effort and
// never propagate failures back into the request.
type Tracker interface {
	Registered(ctx context.Context, e Event)
	Login(ctx context.Context, e Event)
}

type slogTracker struct {
	log *slog.Logger
}

// NewSlogTracker returns a Tracker that records events on the given logger.
func NewSlogTracker(log *slog.Logger) Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &slogTracker{log: log}
}

func (t *slogTracker) Registered(ctx context.Context, e Event) {
	t.log.InfoContext(ctx, "account registered",
		"account_id", e.AccountID, "team_id", e.TeamID, "tmb_id", e.TmbID, "source_ip", e.SourceIP)
}

func (t *slogTracker) Login(ctx context.Context, e Event) {
	t.log.InfoContext(ctx, "account login",
		"account_id", e.AccountID, "team_id", e.TeamID, "tmb_id", e.TmbID, "source_ip", e.SourceIP)
}
