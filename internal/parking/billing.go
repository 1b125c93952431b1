package parking

import (
	"fmt"
	"time"

	"github.com/iliyamo/smart-parking/internal/model"
)

// Rates are the configured prices in whole currency units.
type Rates struct {
	HourlyRate  int64
	DayPassRate int64
}

// Billing computes the amount owed when a session closes.
type Billing struct {
	rates Rates
}

// NewBilling returns a Billing using rates.  Negative rates are rejected.
func NewBilling(rates Rates) (*Billing, error) {
	if rates.HourlyRate < 0 || rates.DayPassRate < 0 {
		return nil, fmt.Errorf("%w: negative billing rate", ErrInvalidInput)
	}
	return &Billing{rates: rates}, nil
}

// Rates returns the configured rates.
func (b *Billing) Rates() Rates { return b.rates }

// ComputeAmount returns the amount for a stay from entry to exit.  Hourly
// stays are billed per started hour with a minimum of one hour; a day pass
// is a flat rate.
func (b *Billing) ComputeAmount(bt model.BillingType, entry, exit time.Time) (int64, error) {
	if exit.Before(entry) {
		return 0, fmt.Errorf("%w: exit %s before entry %s", ErrInvalidInterval,
			exit.UTC().Format(time.RFC3339), entry.UTC().Format(time.RFC3339))
	}
	switch bt {
	case model.BillingHourly:
		return b.rates.HourlyRate * billedHours(exit.Sub(entry)), nil
	case model.BillingDayPass:
		return b.rates.DayPassRate, nil
	}
	return 0, fmt.Errorf("%w: billing type %s", ErrInvalidInput, bt)
}

func billedHours(elapsed time.Duration) int64 {
	hours := int64((elapsed + time.Hour - 1) / time.Hour)
	if hours < 1 {
		return 1
	}
	return hours
}
