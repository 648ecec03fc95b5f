package access

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/events"
	"github.com/staysuite/guestgate/pkg/logger"
)

const auditSubjectPrefix = "security.suspicious."

// Auditor records suspicious events for operator review. Writes are
// fire-and-forget on a detached context: a failing audit store must never
// block or fail the request that triggered it.
type Auditor struct {
	repo postgres.ActivityRepo
	bus  events.Publisher // optional fan-out for live alerting
}

func NewAuditor(repo postgres.ActivityRepo, bus events.Publisher) *Auditor {
	return &Auditor{repo: repo, bus: bus}
}

func (a *Auditor) Record(propertyID *uuid.UUID, token string, typ domain.ActivityType, details any, severity domain.Severity, ip string) {
	var payload json.RawMessage
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			payload = b
		}
	}

	rec := &domain.SuspiciousActivity{
		PropertyID:   propertyID,
		Token:        token,
		ActivityType: typ,
		Details:      payload,
		Severity:     severity,
		IPAddress:    ip,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.repo.Record(ctx, rec); err != nil {
			logger.Error("failed to record suspicious activity",
				"error", err, "activity_type", typ)
		}
		if a.bus != nil {
			if err := a.bus.Publish(ctx, auditSubjectPrefix+string(typ), rec); err != nil {
				logger.Error("failed to publish suspicious activity event",
					"error", err, "activity_type", typ)
			}
		}
	}()
}
