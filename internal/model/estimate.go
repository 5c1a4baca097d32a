package model

import "math"

// dbpFraction is a rough physiological approximation, not a validated one.
const dbpFraction = 0.65

// Estimate is a heuristic split of the predicted value. SBP carries the
// predicted value itself; no systolic model exists.
type Estimate struct {
	SBP    float64 `json:"sbp"`
	DBP    float64 `json:"dbp"`
	Method string  `json:"method"`
}

// EstimatePressures derives a diastolic estimate as a fixed fraction of bp,
// rounded to one decimal place.
func EstimatePressures(bp float64) Estimate {
	return Estimate{
		SBP:    round1(bp),
		DBP:    round1(bp * dbpFraction),
		Method: "heuristic: dbp = 0.65 * predicted",
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
