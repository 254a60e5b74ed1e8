package seedevents

import (
	"fmt"

	"github.com/okian/imobrank/internal/domain/model"
	"github.com/okian/imobrank/internal/domain/types"
)

// checkInvariants returns every way res disagrees with itself: totals that do
// not add up, breakdowns that do not match their row, rows out of order or
// positions that skip.
func checkInvariants(res types.RankingResult) []error {
	var (
		errs           []error
		events, points int64
	)
	if res.Stats.Agencies != len(res.Rows) {
		errs = append(errs, fmt.Errorf("statistics report %d agencies, ranking has %d rows", res.Stats.Agencies, len(res.Rows)))
	}

	for i, row := range res.Rows {
		events += row.EventCount
		points += row.Points

		if row.Position != i+1 {
			errs = append(errs, fmt.Errorf("row %d has position %d", i, row.Position))
		}
		if i > 0 && ranksAbove(row, res.Rows[i-1]) {
			errs = append(errs, fmt.Errorf("agency %d ranked below agency %d", row.AgencyID, res.Rows[i-1].AgencyID))
		}

		var bEvents, bPoints int64
		for _, b := range row.Breakdown {
			bEvents += b.Count
			bPoints += b.Points
		}
		if bEvents != row.EventCount || bPoints != row.Points {
			errs = append(errs, fmt.Errorf("agency %d breakdown sums to %d/%d, row says %d/%d",
				row.AgencyID, bEvents, bPoints, row.EventCount, row.Points))
		}
	}

	if events != res.Stats.Events || points != res.Stats.Points {
		errs = append(errs, fmt.Errorf("rows sum to %d/%d, statistics say %d/%d",
			events, points, res.Stats.Events, res.Stats.Points))
	}
	return errs
}

func ranksAbove(a, b types.RankingRow) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.EventCount != b.EventCount {
		return a.EventCount > b.EventCount
	}
	return a.AgencyID < b.AgencyID
}

type agencyTotal struct {
	events, points int64
}

// expectedTotals folds the accepted events of one developer into per-agency
// totals.
func expectedTotals(events []model.ActionEvent, developerID int64) map[int64]agencyTotal {
	out := map[int64]agencyTotal{}
	for _, ev := range events {
		if ev.DeveloperID != developerID {
			continue
		}
		t := out[ev.AgencyID]
		t.events++
		t.points += ev.Points
		out[ev.AgencyID] = t
	}
	return out
}

// compareScoped checks a developer's ranking against what its accepted
// events add up to. Developers are created by the run, so nothing else can
// have contributed to their totals.
func compareScoped(res types.RankingResult, want map[int64]agencyTotal) []error {
	var errs []error
	if len(res.Rows) != len(want) {
		errs = append(errs, fmt.Errorf("ranking has %d agencies, expected %d", len(res.Rows), len(want)))
	}
	for _, row := range res.Rows {
		w, ok := want[row.AgencyID]
		if !ok {
			errs = append(errs, fmt.Errorf("agency %d ranked without events for this developer", row.AgencyID))
			continue
		}
		if row.EventCount != w.events || row.Points != w.points {
			errs = append(errs, fmt.Errorf("agency %d has %d/%d, expected %d/%d",
				row.AgencyID, row.EventCount, row.Points, w.events, w.points))
		}
	}
	return errs
}
