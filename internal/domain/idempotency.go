// Package domain – Idempotency
package domain

import "time"

// Idempotency records the message produced by a POST /messages call, keyed
// by (scope, key), so a retried request replays the original record instead
// of creating a duplicate. Scope identifies the caller (user header or client
// IP).
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_scope_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_scope_key,priority:2"`
	MessageID int64     `gorm:"not null"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
