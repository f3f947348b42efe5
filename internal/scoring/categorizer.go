package scoring

import (
	"driftwatch/domain/cohort"
	"driftwatch/domain/risk"
	"driftwatch/domain/signal"
	"driftwatch/internal/config"
)

// Categorizer assigns the risk category from the signal group with the
// largest aggregate abnormality at the person's most recent wave. The
// aggregate statistic and the tie-break priority are configuration, not
// logic: both were deliberately lifted out of branching code into a
// declarative table.
type Categorizer struct {
	table     cohort.PolarityTable
	aggregate string
	tieBreak  []risk.Category
}

// NewCategorizer builds a categorizer from the category configuration
func NewCategorizer(table cohort.PolarityTable, cfg config.CategoryConfig) *Categorizer {
	return &Categorizer{
		table:     table,
		aggregate: cfg.Aggregate,
		tieBreak:  cfg.TieBreak,
	}
}

// Categorize aggregates abnormality per signal group over the given
// records (callers pass the most recent wave's records) and returns the
// dominant group. Exact ties resolve by the configured priority order.
func (c *Categorizer) Categorize(latest []signal.DeviationRecord) risk.Category {
	totals := make(map[cohort.SignalGroup]float64, 3)

	for _, rec := range latest {
		trait, ok := c.table[rec.Feature]
		if !ok {
			continue
		}
		switch c.aggregate {
		case "decline_count":
			if rec.DeclineFlag {
				totals[trait.Group]++
			}
		default: // abs_z; undefined z-scores contribute nothing
			if rec.Z.Valid {
				totals[trait.Group] += abs(rec.Z.V)
			}
		}
	}

	best := -1.0
	for _, group := range cohort.SignalGroups {
		if totals[group] > best {
			best = totals[group]
		}
	}
	for _, cat := range c.tieBreak {
		if totals[cohort.SignalGroup(cat)] == best {
			return cat
		}
	}
	// Tie-break order misconfigured to miss the winner; fall back to
	// declaration order
	for _, group := range cohort.SignalGroups {
		if totals[group] == best {
			return risk.Category(group)
		}
	}
	return risk.Category(cohort.SignalGroups[0])
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
