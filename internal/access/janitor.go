package access

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/logger"
)

// EventPruner trims old rate-limit events. Nil when the counter backend
// expires its own state (redis).
type EventPruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Janitor tightens validity windows for stays whose checkout has passed and
// prunes the rate-limit event log. Shortening only; a window is never
// extended after issuance.
type Janitor struct {
	tokens postgres.TokenRepo
	pruner EventPruner
	cron   *cron.Cron
}

func NewJanitor(tokens postgres.TokenRepo, pruner EventPruner) *Janitor {
	return &Janitor{tokens: tokens, pruner: pruner, cron: cron.New()}
}

func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("15 3 * * *", j.tightenWindows); err != nil {
		return err
	}
	if j.pruner != nil {
		if _, err := j.cron.AddFunc("@hourly", j.pruneEvents); err != nil {
			return err
		}
	}
	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) tightenWindows() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := j.tokens.TightenExpiredWindows(ctx, time.Now())
	if err != nil {
		logger.Error("janitor: tighten windows failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("janitor: tightened validity windows", "tokens", n)
	}
}

func (j *Janitor) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Keep one hour past the longest window so in-flight counts stay exact.
	n, err := j.pruner.Prune(ctx, time.Now().Add(-25*time.Hour))
	if err != nil {
		logger.Error("janitor: prune rate limit events failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("janitor: pruned rate limit events", "events", n)
	}
}
