package models

import "time"

// AuditAction labels audit log entries.
type AuditAction string

const (
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionLogout           AuditAction = "LOGOUT"
	AuditActionBulletinGenerate AuditAction = "BULLETIN_GENERATE"
)

// AuditLog records a sensitive action for traceability.
type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	UserID     *string     `db:"user_id" json:"user_id,omitempty"`
	Action     AuditAction `db:"action" json:"action"`
	Resource   string      `db:"resource" json:"resource"`
	ResourceID *string     `db:"resource_id" json:"resource_id,omitempty"`
	Detail     []byte      `db:"detail" json:"detail,omitempty"`
	IPAddress  string      `db:"ip_address" json:"ip_address"`
	UserAgent  string      `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
