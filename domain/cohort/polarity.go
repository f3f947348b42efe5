package cohort

import (
	"fmt"
	"sort"
)

// Polarity declares which direction of movement is worse for a feature
type Polarity int

const (
	// HigherIsBetter: declines are the warning direction (sleep hours, activity)
	HigherIsBetter Polarity = iota
	// HigherIsWorse: increases are the warning direction (stress, BMI)
	HigherIsWorse
)

// SignalGroup buckets features for risk categorization
type SignalGroup string

const (
	GroupCardiovascular  SignalGroup = "Cardiovascular"
	GroupMetabolic       SignalGroup = "Metabolic"
	GroupPsychoEmotional SignalGroup = "Psycho-emotional"
)

// SignalGroups lists all groups in declaration order
var SignalGroups = []SignalGroup{GroupCardiovascular, GroupMetabolic, GroupPsychoEmotional}

// FeatureTrait is the static per-feature configuration: polarity plus
// the signal group the feature aggregates into
type FeatureTrait struct {
	Polarity Polarity
	Group    SignalGroup
}

// PolarityTable maps feature names to their traits. Built once at startup,
// read-only for the process lifetime.
type PolarityTable map[string]FeatureTrait

// DefaultPolarityTable covers the six self-report features the ingestion
// contract delivers
func DefaultPolarityTable() PolarityTable {
	return PolarityTable{
		"resting_hr":     {Polarity: HigherIsWorse, Group: GroupCardiovascular},
		"sleep_hours":    {Polarity: HigherIsBetter, Group: GroupCardiovascular},
		"bmi":            {Polarity: HigherIsWorse, Group: GroupMetabolic},
		"activity_level": {Polarity: HigherIsBetter, Group: GroupMetabolic},
		"health_rating":  {Polarity: HigherIsBetter, Group: GroupPsychoEmotional},
		"stress_level":   {Polarity: HigherIsWorse, Group: GroupPsychoEmotional},
	}
}

// FeatureNames returns the configured feature names in deterministic order
func (t PolarityTable) FeatureNames() []string {
	names := make([]string, 0, len(t))
	for _, g := range SignalGroups {
		for _, n := range sortedKeys(t) {
			if t[n].Group == g {
				names = append(names, n)
			}
		}
	}
	return names
}

// Validate rejects tables with unknown signal groups
func (t PolarityTable) Validate() error {
	known := map[SignalGroup]bool{}
	for _, g := range SignalGroups {
		known[g] = true
	}
	for name, trait := range t {
		if !known[trait.Group] {
			return fmt.Errorf("feature %q maps to unknown signal group %q", name, trait.Group)
		}
	}
	return nil
}

func sortedKeys(t PolarityTable) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
