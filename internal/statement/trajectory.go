package statement

import (
	"math"

	"github.com/spegfinder/clearview/internal/model"
)

// directionDeadband is the percentage-change magnitude under which a move
// counts as "no clear direction" and breaks a direction run. Net-asset
// YearsDeclining deliberately does not use it; see TrajectoryFeatures.
const directionDeadband = 0.02

// ComputeTrajectory derives year-on-year change features from a reduced
// series. Fields with fewer than two observed years contribute a latest
// value but no change metrics.
func ComputeTrajectory(series model.FinancialSeries) *model.TrajectoryFeatures {
	feats := &model.TrajectoryFeatures{
		YearsAvailable: len(series),
		Fields:         make(map[model.CanonicalField]model.FieldTrajectory),
	}
	if latest := series.Latest(); latest != nil {
		feats.LatestYear = latest.Year
	}

	for _, field := range model.TrackedFields() {
		vals := series.FieldValues(field)
		if len(vals) == 0 {
			continue
		}
		feats.Fields[field] = fieldTrajectory(vals)
	}

	naVals := series.FieldValues(model.NetAssets)
	if len(naVals) >= 1 {
		feats.NetAssetsNegative = naVals[len(naVals)-1] < 0
	}
	if len(naVals) >= 2 {
		changes := diffs(naVals)
		latest := changes[len(changes)-1]
		feats.NetAssetsDeclining = latest < 0
		feats.TurnedNegative = naVals[len(naVals)-1] < 0 && naVals[0] > 0
		// Strict-negative convention: every negative change counts,
		// however small.
		for i := len(changes) - 1; i >= 0; i-- {
			if changes[i] >= 0 {
				break
			}
			feats.YearsDeclining++
		}
	}

	return feats
}

// fieldTrajectory computes change metrics for one field's chronological
// values (oldest first).
func fieldTrajectory(vals []float64) model.FieldTrajectory {
	t := model.FieldTrajectory{Latest: vals[len(vals)-1]}
	if len(vals) < 2 {
		return t
	}

	changes := diffs(vals)
	pcts := make([]float64, len(changes))
	for i := range changes {
		pcts[i] = pctChange(vals[i+1], vals[i])
	}

	latestAbs := changes[len(changes)-1]
	latestPct := pcts[len(pcts)-1]
	t.AbsChange = &latestAbs
	t.PctChange = &latestPct

	t.DirectionRun = directionRun(pcts)

	if len(changes) >= 2 {
		prior := changes[len(changes)-2]
		t.Accelerating = math.Abs(latestAbs) > math.Abs(prior) && sameSign(latestAbs, prior)
	}

	return t
}

// pctChange is (newer-older)/|older|. A zero older value yields ±1 by the
// sign of newer (0 when both are zero), signalling direction without
// dividing by zero.
func pctChange(newer, older float64) float64 {
	if older == 0 {
		switch {
		case newer > 0:
			return 1
		case newer < 0:
			return -1
		default:
			return 0
		}
	}
	return (newer - older) / math.Abs(older)
}

// directionRun counts, backward from the most recent pair, how many
// consecutive percentage changes share the latest change's sign. A change
// inside the deadband has no clear direction and ends the run.
func directionRun(pcts []float64) int {
	if len(pcts) == 0 {
		return 0
	}
	latest := pcts[len(pcts)-1]
	if math.Abs(latest) < directionDeadband {
		return 0
	}
	run := 0
	for i := len(pcts) - 1; i >= 0; i-- {
		if math.Abs(pcts[i]) < directionDeadband || !sameSign(pcts[i], latest) {
			break
		}
		run++
	}
	return run
}

func diffs(vals []float64) []float64 {
	out := make([]float64, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		out[i-1] = vals[i] - vals[i-1]
	}
	return out
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
