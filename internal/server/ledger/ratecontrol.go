package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

// RateController applies rate increases, enforcing a minimum spacing between
// accepted increases of the same record.
type RateController struct {
	Step         float64
	Cooldown     time.Duration
	RateConstant float64
}

// Apply settles pending accrual and adds amount (Step when nil) to the rate.
// It fails with common.ErrRateLimited, leaving rec untouched, when the last
// accepted increase is younger than Cooldown.
func (c RateController) Apply(rec models.UserRecord, amount *float64, now int64) (models.UserRecord, error) {
	inc, err := c.Amount(amount)
	if err != nil {
		return rec, err
	}

	if rec.LastIncreaseAt != 0 && now-rec.LastIncreaseAt < c.Cooldown.Milliseconds() {
		wait := time.Duration(c.Cooldown.Milliseconds()-(now-rec.LastIncreaseAt)) * time.Millisecond
		return rec, fmt.Errorf("%w: retry in %s", common.ErrRateLimited, wait)
	}

	next, _ := Settle(rec, now, c.RateConstant)
	next.Rate += inc
	next.LastIncreaseAt = now
	next.MiningActive = true
	return next, nil
}

// Amount resolves the increase to apply: Step when amount is nil. Anything
// but a finite positive number is common.ErrInvalidInput.
func (c RateController) Amount(amount *float64) (float64, error) {
	inc := c.Step
	if amount != nil {
		inc = *amount
	}
	if math.IsNaN(inc) || math.IsInf(inc, 0) || inc <= 0 {
		return 0, fmt.Errorf("%w: amount must be a positive number", common.ErrInvalidInput)
	}
	return inc, nil
}
