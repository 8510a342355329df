// Package ledgerapi is the wire contract of the ledger gRPC service: message
// types, the JSON codec they travel in, the service descriptor and a client.
package ledgerapi

import "time"

type GetBalanceRequest struct {
	UID string `json:"uid"`
}

// IncreaseRateRequest asks for a rate increase. A nil Amount means the
// server's default step.
type IncreaseRateRequest struct {
	UID    string   `json:"uid"`
	Amount *float64 `json:"amount,omitempty"`
}

type SyncRequest struct {
	UID     string   `json:"uid"`
	Balance *float64 `json:"balance"`
	Rate    *float64 `json:"rate"`
}

type TriggerResetRequest struct{}

// Record is the client view of a user record. Times are Unix milliseconds.
type Record struct {
	UID            string  `json:"uid"`
	Rate           float64 `json:"rate"`
	Balance        float64 `json:"balance"`
	LastObservedAt int64   `json:"last_observed_at"`
	LastIncreaseAt int64   `json:"last_increase_at,omitempty"`
	LastResetAt    int64   `json:"last_reset_at,omitempty"`
	MiningActive   bool    `json:"mining_active"`
}

type SweepReport struct {
	ID         string    `json:"id"`
	Marker     int64     `json:"marker"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Visited    int       `json:"visited"`
	Reset      int       `json:"reset"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}
