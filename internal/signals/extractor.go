// Package signals derives weak drift signals for every post-baseline
// wave: deviation from the personal mean, percent change, z-score,
// trailing moving average, trailing trend slope, and a polarity-aware
// decline flag.
package signals

import (
	"strings"

	"gonum.org/v1/gonum/stat"

	"driftwatch/domain/cohort"
	"driftwatch/domain/signal"
)

// Vector column suffixes, one block per feature
const (
	SuffixDeviation = "_deviation"
	SuffixPctChange = "_pct_change"
	SuffixZ         = "_z"
	SuffixSlope     = "_slope"
	SuffixDeclining = "_declining"
)

// Extractor computes DeviationRecords relative to a fixed baseline.
// Pure and deterministic: identical (history, baseline) inputs produce
// identical records, and neither input is ever mutated.
type Extractor struct {
	table          cohort.PolarityTable
	trailingWindow int
	slopeThreshold float64
}

// NewExtractor creates an extractor with the given trailing window W and
// decline-slope threshold
func NewExtractor(table cohort.PolarityTable, trailingWindow int, slopeThreshold float64) *Extractor {
	return &Extractor{
		table:          table,
		trailingWindow: trailingWindow,
		slopeThreshold: slopeThreshold,
	}
}

// Extract derives one DeviationRecord per (post-baseline wave, feature),
// scoped to the features the baseline covers. Waves at indices below the
// baseline window end never appear in the output; the window itself is
// reference-only.
func (e *Extractor) Extract(person cohort.Person, base signal.Baseline) []signal.DeviationRecord {
	features := make([]string, 0, len(base.Features))
	for _, feat := range e.table.FeatureNames() {
		if _, ok := base.Features[feat]; ok {
			features = append(features, feat)
		}
	}
	records := make([]signal.DeviationRecord, 0, len(person.Waves)*len(features))

	for pos, wave := range person.Waves {
		if wave.WaveIndex < base.WindowEnd {
			continue
		}
		for _, feat := range features {
			records = append(records, e.extractOne(person, base, pos, feat))
		}
	}
	return records
}

func (e *Extractor) extractOne(person cohort.Person, base signal.Baseline, pos int, feat string) signal.DeviationRecord {
	wave := person.Waves[pos]
	fb := base.Features[feat]
	rec := signal.DeviationRecord{
		PersonID:  person.ID,
		WaveIndex: wave.WaveIndex,
		Feature:   feat,
		Raw:       wave.Feature(feat),
	}

	// deviation = value - baseline mean; null propagates
	if rec.Raw.Valid && fb.Mean.Valid {
		rec.Deviation = cohort.Val(rec.Raw.V - fb.Mean.V)
	}

	// pct_change against the baseline mean (not the previous wave); an
	// explicit undefined result when the mean is zero, never an Inf
	if rec.Deviation.Valid && fb.Mean.V != 0 {
		rec.PctChange = cohort.Val(rec.Deviation.V / abs(fb.Mean.V) * 100)
	}

	// z undefined whenever the baseline std is the undefined sentinel
	if rec.Deviation.Valid && fb.Std.Valid && fb.Std.V != 0 {
		rec.Z = cohort.Val(rec.Deviation.V / fb.Std.V)
	}

	rec.MovingAvg = e.trailingMean(person.Waves, pos, feat)
	rec.TrendSlope = e.trailingSlope(person.Waves, pos, feat)
	rec.DeclineFlag = e.declineFlag(feat, rec.TrendSlope)
	return rec
}

// trailingMean averages the non-null values over the trailing W waves
// ending at pos; null only when every value in the window is null
func (e *Extractor) trailingMean(waves []cohort.WaveRecord, pos int, feat string) cohort.Value {
	start := pos - e.trailingWindow + 1
	if start < 0 {
		start = 0
	}
	sum, n := 0.0, 0
	for _, w := range waves[start : pos+1] {
		if v := w.Feature(feat); v.Valid {
			sum += v.V
			n++
		}
	}
	if n == 0 {
		return cohort.Null()
	}
	return cohort.Val(sum / float64(n))
}

// trailingSlope fits an OLS line of value against wave index over the
// trailing window; requires at least two valid points
func (e *Extractor) trailingSlope(waves []cohort.WaveRecord, pos int, feat string) cohort.Value {
	start := pos - e.trailingWindow + 1
	if start < 0 {
		start = 0
	}
	xs := make([]float64, 0, e.trailingWindow)
	ys := make([]float64, 0, e.trailingWindow)
	for _, w := range waves[start : pos+1] {
		if v := w.Feature(feat); v.Valid {
			xs = append(xs, float64(w.WaveIndex))
			ys = append(ys, v.V)
		}
	}
	if len(xs) < 2 {
		return cohort.Null()
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return cohort.Val(beta)
}

// declineFlag is raised when the slope points toward the feature's worse
// polarity and its magnitude exceeds the configured threshold
func (e *Extractor) declineFlag(feat string, slope cohort.Value) bool {
	if !slope.Valid {
		return false
	}
	trait, ok := e.table[feat]
	if !ok {
		return false
	}
	if abs(slope.V) <= e.slopeThreshold {
		return false
	}
	if trait.Polarity == cohort.HigherIsBetter {
		return slope.V < 0
	}
	return slope.V > 0
}

// LatestWave filters records down to the most recent wave index present
func LatestWave(records []signal.DeviationRecord) []signal.DeviationRecord {
	latest := -1
	for _, r := range records {
		if r.WaveIndex > latest {
			latest = r.WaveIndex
		}
	}
	out := make([]signal.DeviationRecord, 0, 8)
	for _, r := range records {
		if r.WaveIndex == latest {
			out = append(out, r)
		}
	}
	return out
}

// BuildVector assembles the classifier input from the records at the most
// recent wave: five derived columns per feature in a fixed order.
// Undefined statistics are imputed to zero here, at assembly time only;
// the records themselves keep their explicit undefined sentinels.
func BuildVector(personID cohort.PersonID, records []signal.DeviationRecord, features []string) signal.FeatureVector {
	latest := LatestWave(records)
	byFeature := make(map[string]signal.DeviationRecord, len(latest))
	maxWave := 0
	for _, r := range latest {
		byFeature[r.Feature] = r
		if r.WaveIndex > maxWave {
			maxWave = r.WaveIndex
		}
	}

	names := make([]string, 0, len(features)*5)
	values := make([]float64, 0, len(features)*5)
	for _, feat := range features {
		r := byFeature[feat]
		names = append(names,
			feat+SuffixDeviation, feat+SuffixPctChange, feat+SuffixZ, feat+SuffixSlope, feat+SuffixDeclining)
		declining := 0.0
		if r.DeclineFlag {
			declining = 1
		}
		values = append(values,
			r.Deviation.Or(0), r.PctChange.Or(0), r.Z.Or(0), r.TrendSlope.Or(0), declining)
	}

	return signal.FeatureVector{
		PersonID:     personID,
		MaxWaveIndex: maxWave,
		Names:        names,
		Values:       values,
	}
}

// BaseFeature strips the derived-column suffix from a vector column name,
// returning the underlying feature name
func BaseFeature(column string) string {
	for _, suffix := range []string{SuffixDeviation, SuffixPctChange, SuffixZ, SuffixSlope, SuffixDeclining} {
		if strings.HasSuffix(column, suffix) {
			return strings.TrimSuffix(column, suffix)
		}
	}
	return column
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
