package progression

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
)

// Evaluate decides whether a new attempt for competitor at sectionID may be
// recorded and which lap number it would get. It is a pure function over the
// catalog snapshot and the competitor's existing attempts; it never mutates
// state. attempts must contain all attempts of this competitor (any section).
func Evaluate(
	catalog *model.Catalog,
	competitor *model.Competitor,
	sectionID int,
	attempts []*model.Attempt,
) *model.ProgressionResult {
	sectionLap := maxLapAtSection(attempts, sectionID)
	relevant := RelevantClasses(catalog, competitor, sectionID)

	// A section not covered by any of the competitor's classes is
	// unconstrained. This is the escape hatch for sections that are not
	// (yet) assigned to a class the competitor is entered in.
	if len(relevant) == 0 {
		return &model.ProgressionResult{
			NextLap:    sectionLap + 1,
			CurrentLap: sectionLap,
			Allowed:    true,
		}
	}

	currentLap := 0
	for _, cls := range relevant {
		if classLap := classMaxLap(cls, attempts); classLap > currentLap {
			currentLap = classLap
		}
	}

	// Nothing recorded in any relevant class: lap 1 may start anywhere.
	if currentLap == 0 {
		return &model.ProgressionResult{NextLap: 1, CurrentLap: 0, Allowed: true}
	}

	var nextLap int
	if sectionLap < currentLap {
		// The target section itself is still missing for the lap the
		// competitor is in; filling it never requires other sections.
		nextLap = currentLap
	} else {
		nextLap = currentLap + 1
	}

	// Lap cap: the smallest relevant class refuses first. This takes
	// precedence over a blocked lap, see the standings contract.
	for _, cls := range relevant {
		if nextLap > cls.Laps {
			return &model.ProgressionResult{
				CurrentLap:     currentLap,
				CourseComplete: true,
			}
		}
	}

	if nextLap > currentLap {
		// Advancing past the current lap requires every section of every
		// relevant class to be scored for the current lap.
		blocking := blockingSections(catalog, relevant, attempts, currentLap)
		if len(blocking) > 0 {
			return &model.ProgressionResult{
				CurrentLap:       currentLap,
				BlockingSections: blocking,
			}
		}
	}

	return &model.ProgressionResult{
		NextLap:    nextLap,
		CurrentLap: currentLap,
		Allowed:    true,
	}
}

// RelevantClasses computes the classes that drive progression for an attempt:
// the competitor's classes whose section list contains the target section.
func RelevantClasses(
	catalog *model.Catalog,
	competitor *model.Competitor,
	sectionID int,
) []*model.Class {
	return lo.Filter(catalog.Classes, func(cls *model.Class, _ int) bool {
		return competitor.InClass(cls.ID) && cls.ContainsSection(sectionID)
	})
}

// classMaxLap is the highest lap the competitor has recorded on any section
// belonging to cls, 0 if none.
func classMaxLap(cls *model.Class, attempts []*model.Attempt) int {
	maxLap := 0
	for _, a := range attempts {
		if cls.ContainsSection(a.SectionID) && a.Lap > maxLap {
			maxLap = a.Lap
		}
	}
	return maxLap
}

func maxLapAtSection(attempts []*model.Attempt, sectionID int) int {
	maxLap := 0
	for _, a := range attempts {
		if a.SectionID == sectionID && a.Lap > maxLap {
			maxLap = a.Lap
		}
	}
	return maxLap
}

// blockingSections names the sections of the relevant classes that have no
// attempt for lap. The union over all relevant classes is reported so that a
// shared section couples the lap progression of every class it belongs to.
func blockingSections(
	catalog *model.Catalog,
	relevant []*model.Class,
	attempts []*model.Attempt,
	lap int,
) []string {
	scored := make(map[int]bool)
	for _, a := range attempts {
		if a.Lap == lap {
			scored[a.SectionID] = true
		}
	}
	missing := make(map[int]bool)
	for _, cls := range relevant {
		for _, sectionID := range cls.SectionIDs {
			if !scored[sectionID] {
				missing[sectionID] = true
			}
		}
	}
	names := make([]string, 0, len(missing))
	for sectionID := range missing {
		name := catalog.SectionName(sectionID)
		if name == "" {
			// a class referencing an unknown section is a configuration
			// inconsistency; report it instead of hiding it
			name = fmt.Sprintf("unknown section #%d", sectionID)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
