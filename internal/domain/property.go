package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Property struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Slug      string          `json:"slug"`
	Name      string          `json:"name"`
	Guide     json.RawMessage `json:"guide,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Owner is the authenticated identity behind issuance, revocation and the
// gateway's owner bypass. Sessions are minted by the dashboard's auth
// service; this service only verifies them.
type Owner struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Email    string
}
