package seedevents

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/imobrank/internal/domain/actionlog"
)

const (
	maxQuantity   = 3
	dateSpanDays  = 90
	maxValueCents = 50_000_000
)

// generateEvents builds n registration requests spread over the fixtures.
// The same seed always yields the same requests.
func generateEvents(f *Fixtures, n int, seed uint64, today time.Time) []actionlog.NewEvent {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	events := make([]actionlog.NewEvent, n)

	for i := range events {
		p := f.Projects[r.IntN(len(f.Projects))]
		at := f.ActionTypes[r.IntN(len(f.ActionTypes))]

		var value decimal.Decimal
		if at.Points >= 100 {
			value = decimal.New(r.Int64N(maxValueCents), -2)
		}

		events[i] = actionlog.NewEvent{
			DeveloperID:  p.DeveloperID,
			ProjectID:    p.ID,
			AgencyID:     f.Agencies[r.IntN(len(f.Agencies))].ID,
			AgentID:      f.Agents[r.IntN(len(f.Agents))].ID,
			ActionTypeID: at.ID,
			Date:         today.AddDate(0, 0, -r.IntN(dateSpanDays)).Format(time.DateOnly),
			Quantity:     1 + r.IntN(maxQuantity),
			Value:        value,
		}
	}
	return events
}
