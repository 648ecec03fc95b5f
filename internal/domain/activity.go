package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityInvalidToken     ActivityType = "invalid_token"
	ActivityTokenDeactivated ActivityType = "token_deactivated"
	ActivityRateLimitIP      ActivityType = "rate_limit_ip"
	ActivityRateLimitMinute  ActivityType = "rate_limit_token_minute"
	ActivityRateLimitDaily   ActivityType = "rate_limit_token_daily"
	ActivityRateLimitDevice  ActivityType = "rate_limit_device"
	ActivityTokenMismatch    ActivityType = "token_mismatch"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SuspiciousActivity is write-only from this service; reporting reads it.
type SuspiciousActivity struct {
	ID           int64           `json:"id"`
	PropertyID   *uuid.UUID      `json:"property_id,omitempty"`
	Token        string          `json:"token,omitempty"`
	ActivityType ActivityType    `json:"activity_type"`
	Details      json.RawMessage `json:"details,omitempty"`
	Severity     Severity        `json:"severity"`
	IPAddress    string          `json:"ip_address,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
