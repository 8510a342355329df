package ledger

import "github.com/dmitrijs2005/minerledger/internal/server/models"

// Credit converts the time elapsed since lastObservedAt into credit.
//
// Only whole seconds accrue: the sub-second remainder is discarded because the
// returned watermark is always now. A now earlier than lastObservedAt yields
// no credit and keeps the old watermark.
func Credit(rate float64, lastObservedAt, now int64, constant float64) (credit float64, watermark int64) {
	if now < lastObservedAt {
		return 0, lastObservedAt
	}
	elapsedSeconds := (now - lastObservedAt) / 1000
	if elapsedSeconds <= 0 || rate <= 0 || constant <= 0 {
		return 0, now
	}
	return float64(elapsedSeconds) * rate * constant, now
}

// Settle folds pending accrual into rec.Balance and advances the watermark.
func Settle(rec models.UserRecord, now int64, constant float64) (models.UserRecord, float64) {
	credit, watermark := Credit(rec.Rate, rec.LastObservedAt, now, constant)
	rec.Balance += credit
	rec.LastObservedAt = watermark
	return rec, credit
}
