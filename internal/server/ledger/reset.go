package ledger

import "github.com/dmitrijs2005/minerledger/internal/server/models"

// Reset zeroes the rate and stamps marker as the reset time. Balance and the
// watermark are left alone.
//
// The second result is false, and rec is returned as is, when the record
// already went through a reset at or after marker, was created after it, or
// had a rate increase accepted after it: a late or repeated sweep must not
// undo increases accepted since.
func Reset(rec models.UserRecord, marker int64) (models.UserRecord, bool) {
	if rec.LastResetAt >= marker {
		return rec, false
	}
	if rec.LastIncreaseAt > marker {
		return rec, false
	}
	if !rec.CreatedAt.IsZero() && rec.CreatedAt.UnixMilli() > marker {
		return rec, false
	}
	rec.Rate = 0
	rec.MiningActive = false
	rec.LastResetAt = marker
	return rec, true
}
