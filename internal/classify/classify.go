// Package classify holds the string classifiers applied to free-text institute
// and branch names. They are approximate: keyword and substring tables, not
// structured data.
package classify

import (
	"strings"

	"github.com/vitebski/josaa-predictor/internal/config"
)

// Fold normalizes a label for comparison: surrounding and repeated whitespace
// is collapsed and letters are upper-cased. "open" folds to "OPEN" but
// "OPEN-X" stays distinct from "OPEN".
func Fold(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Classifier answers the institute-class, duration and mainstream questions
// from a preferences table
type Classifier struct {
	DurationKeywords   []string
	InstituteClasses   []config.InstituteClass
	Mainstream         map[string]map[string]bool
	MainstreamFallback string
}

// NewClassifier builds a classifier from preferences
func NewClassifier(prefs *config.Preferences) *Classifier {
	c := &Classifier{
		InstituteClasses:   prefs.InstituteClasses,
		Mainstream:         make(map[string]map[string]bool),
		MainstreamFallback: prefs.MainstreamFallback,
	}

	for _, kw := range prefs.DurationKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			c.DurationKeywords = append(c.DurationKeywords, kw)
		}
	}

	for class, branches := range prefs.Mainstream {
		set := make(map[string]bool, len(branches))
		for _, b := range branches {
			set[Fold(b)] = true
		}
		c.Mainstream[class] = set
	}

	return c
}

// InstituteClass returns the first class whose marker occurs in the
// institute name, or "" when none does
func (c *Classifier) InstituteClass(institute string) string {
	name := strings.ToLower(institute)
	for _, class := range c.InstituteClasses {
		for _, marker := range class.Markers {
			marker = strings.ToLower(strings.TrimSpace(marker))
			if marker != "" && strings.Contains(name, marker) {
				return class.Class
			}
		}
	}
	return ""
}

// IsNonStandardDuration reports whether the branch text names a dual-degree,
// integrated or five-year programme
func (c *Classifier) IsNonStandardDuration(branch string) bool {
	text := strings.ToLower(branch)
	for _, kw := range c.DurationKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// IsMainstream reports whether branch is on the allow-list for the class of
// institute. Institutes of an unknown class, or of a class without its own
// list, use the fallback list.
func (c *Classifier) IsMainstream(institute, branch string) bool {
	allowed, ok := c.Mainstream[c.InstituteClass(institute)]
	if !ok {
		allowed = c.Mainstream[c.MainstreamFallback]
	}
	return allowed[Fold(branch)]
}
