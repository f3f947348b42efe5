// Package followup selects one supportive, safety-constrained question
// per assessment. Selection is a deterministic function of (person id,
// score): the same person and score always get the same question, while
// different persons vary.
package followup

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"driftwatch/domain/cohort"
	"driftwatch/domain/risk"
	"driftwatch/internal/errors"
)

// forbiddenPhrases is the static safety vocabulary: no template may carry
// diagnostic or prescriptive language. Checked once over the whole set at
// construction, not per call.
var forbiddenPhrases = []string{
	"diagnos",
	"prescri",
	"medicat",
	"disease",
	"disorder",
	"treatment",
	"therapy",
	"dosage",
	"you should",
	"you must",
	"you need to",
}

// Generator picks follow-up questions from the keyed template table
type Generator struct {
	templates map[templateKey][]string
}

// NewGenerator builds a generator and runs the safety audit over every
// template. An unsafe template is a construction-time failure, never a
// runtime surprise.
func NewGenerator() (*Generator, error) {
	templates := defaultTemplates()
	if err := auditTemplates(templates); err != nil {
		return nil, err
	}
	return &Generator{templates: templates}, nil
}

func auditTemplates(templates map[templateKey][]string) error {
	for key, candidates := range templates {
		if len(candidates) < 3 || len(candidates) > 5 {
			return errors.TemplateUnsafe(fmt.Sprintf(
				"template set %v has %d candidates, want 3-5", key, len(candidates)))
		}
		for _, tpl := range candidates {
			lower := strings.ToLower(tpl)
			for _, phrase := range forbiddenPhrases {
				if strings.Contains(lower, phrase) {
					return errors.TemplateUnsafe(fmt.Sprintf(
						"template %q contains forbidden phrase %q", tpl, phrase))
				}
			}
		}
	}
	return nil
}

// Question selects the follow-up for one assessment. dominantFeature is
// the top-ranked explanation feature (empty when nothing ranked); the
// seeded draw keys on (person id, score) only.
func (g *Generator) Question(personID cohort.PersonID, score float64, category risk.Category, dominantFeature string) string {
	candidates := g.candidates(category, dominantFeature)
	rng := rand.New(rand.NewSource(selectionSeed(personID, score)))
	return candidates[rng.Intn(len(candidates))]
}

func (g *Generator) candidates(category risk.Category, dominantFeature string) []string {
	if dominantFeature != "" {
		if c, ok := g.templates[templateKey{Feature: dominantFeature}]; ok {
			return c
		}
	}
	if c, ok := g.templates[templateKey{Category: category}]; ok {
		return c
	}
	return g.templates[keyGeneral]
}

// selectionSeed hashes (person id, score) so repeated runs reproduce the
// same draw without any global random state
func selectionSeed(personID cohort.PersonID, score float64) int64 {
	h := fnv.New64a()
	h.Write([]byte(personID))
	fmt.Fprintf(h, ":%.1f", score)
	return int64(h.Sum64())
}
