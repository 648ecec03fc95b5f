package access

import (
	"encoding/json"

	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/pkg/events"
	"github.com/staysuite/guestgate/pkg/logger"
)

// StartAlertLog subscribes to the auditor's suspicious-activity subjects and
// writes each event to the structured log, so operators tailing any instance
// see gateway abuse happening across all of them.
func StartAlertLog(sub events.Subscriber) error {
	return sub.Subscribe(auditSubjectPrefix+">", func(msg *events.Message) {
		var rec domain.SuspiciousActivity
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			logger.Warn("alert log: undecodable event", "subject", msg.Subject, "error", err)
			return
		}
		logger.Warn("suspicious activity",
			"activity_type", rec.ActivityType,
			"severity", rec.Severity,
			"property_id", rec.PropertyID,
			"ip", rec.IPAddress,
		)
	})
}
