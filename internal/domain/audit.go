package domain

import "time"

// Audit actions recorded for state-changing operations.
const (
	AuditOrderCreated          = "order_created"
	AuditProductCreated        = "product_created"
	AuditUserRoleUpdated       = "user_role_updated"
	AuditDeliveryStatusUpdated = "delivery_status_updated"
	AuditProductionRecorded    = "production_record_created"
)

// AuditEntry is an append-only record of a state-changing action. Entries are
// never mutated or deleted.
type AuditEntry struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	UserID       string         `json:"user_id"`
	ResourceID   string         `json:"resource_id,omitempty"`
	ResourceType string         `json:"resource_type,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
