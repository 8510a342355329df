// Package models holds the persistent shapes of the ledger.
package models

import "time"

// UserRecord is the per-user accrual state. All *At fields except CreatedAt
// are Unix milliseconds; zero means "never".
type UserRecord struct {
	ID             string    `json:"id"`
	Rate           float64   `json:"rate"`
	Balance        float64   `json:"balance"`
	LastObservedAt int64     `json:"last_observed_at"`
	LastIncreaseAt int64     `json:"last_increase_at,omitempty"`
	LastResetAt    int64     `json:"last_reset_at,omitempty"`
	MiningActive   bool      `json:"mining_active"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUserRecord returns the initial state of a record first observed at nowMs.
func NewUserRecord(id string, nowMs int64) *UserRecord {
	return &UserRecord{
		ID:             id,
		LastObservedAt: nowMs,
		CreatedAt:      time.UnixMilli(nowMs).UTC(),
	}
}
