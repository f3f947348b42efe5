package cohort

import "sort"

// PersonID identifies one individual across all of their waves
type PersonID string

// Value is a nullable numeric observation. Self-report data is full of
// holes, so every feature value carries an explicit validity bit instead
// of overloading zero or NaN.
type Value struct {
	V     float64
	Valid bool
}

// Val wraps a known observation
func Val(v float64) Value {
	return Value{V: v, Valid: true}
}

// Null returns the missing-value sentinel
func Null() Value {
	return Value{}
}

// Or returns the value when valid, otherwise the fallback
func (v Value) Or(fallback float64) float64 {
	if v.Valid {
		return v.V
	}
	return fallback
}

// WaveRecord is one round of self-reports for one person. Immutable once
// ingested; the pipeline only ever reads from it.
type WaveRecord struct {
	WaveIndex int              `json:"wave_index"`
	Features  map[string]Value `json:"features"`
	LifeEvent bool             `json:"life_event,omitempty"`
}

// Feature returns the named feature value, Null if absent
func (w WaveRecord) Feature(name string) Value {
	if v, ok := w.Features[name]; ok {
		return v
	}
	return Null()
}

// Person is an identifier plus the ordered wave history
type Person struct {
	ID    PersonID     `json:"person_id"`
	Waves []WaveRecord `json:"waves"`
}

// SortWaves orders the history by wave index. Ingestion calls this once;
// everything downstream assumes ascending order.
func (p *Person) SortWaves() {
	sort.Slice(p.Waves, func(i, j int) bool {
		return p.Waves[i].WaveIndex < p.Waves[j].WaveIndex
	})
}

// TerminalWave returns the last wave in the history
func (p Person) TerminalWave() (WaveRecord, bool) {
	if len(p.Waves) == 0 {
		return WaveRecord{}, false
	}
	return p.Waves[len(p.Waves)-1], true
}

// Status reports how far a person made it through the pipeline
type Status string

const (
	// StatusOK means the person was scored normally
	StatusOK Status = "OK"
	// StatusInsufficientData means the baseline window held no valid
	// observations for any feature; the person is skipped, not scored
	StatusInsufficientData Status = "InsufficientData"
)
