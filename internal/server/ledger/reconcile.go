package ledger

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

// Reconcile commits a client-tracked balance and rate. The server-side credit
// accrued since the stored watermark, at the stored rate, is added on top of
// the client balance to bridge the interval the client could not observe.
// Mining is active exactly when the client rate is positive.
func Reconcile(rec models.UserRecord, clientBalance, clientRate *float64, now int64, constant float64) (models.UserRecord, error) {
	if err := ValidateSync(clientBalance, clientRate); err != nil {
		return rec, err
	}

	credit, watermark := Credit(rec.Rate, rec.LastObservedAt, now, constant)

	rec.Balance = *clientBalance + credit
	rec.Rate = *clientRate
	rec.MiningActive = *clientRate > 0
	rec.LastObservedAt = watermark
	return rec, nil
}

// ValidateSync reports common.ErrInvalidInput unless both client values are
// present, finite and non-negative.
func ValidateSync(clientBalance, clientRate *float64) error {
	if err := validateAmount("balance", clientBalance); err != nil {
		return err
	}
	return validateAmount("rate", clientRate)
}

func validateAmount(name string, v *float64) error {
	switch {
	case v == nil:
		return fmt.Errorf("%w: %s is required", common.ErrInvalidInput, name)
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		return fmt.Errorf("%w: %s must be finite", common.ErrInvalidInput, name)
	case *v < 0:
		return fmt.Errorf("%w: %s must not be negative", common.ErrInvalidInput, name)
	}
	return nil
}
