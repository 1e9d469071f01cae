package standings

import (
	"slices"

	"github.com/samber/lo"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
)

// Calculate produces the leaderboard of one class from the raw attempt list.
// It is a derived view: the whole board is recomputed on every call, there is
// no incremental state. competitors and attempts may contain entries of other
// classes; the relevant subset is selected here.
func Calculate(
	class *model.Class,
	competitors []*model.Competitor,
	attempts []*model.Attempt,
) *model.Leaderboard {
	board := &model.Leaderboard{
		ClassID:   class.ID,
		ClassName: class.Name,
		Entries:   []*model.LeaderboardEntry{},
	}
	// a class without sections or laps has no meaningful board
	if len(class.SectionIDs) == 0 || class.Laps < 1 {
		return board
	}
	board.Valid = true

	entered := lo.Filter(competitors, func(c *model.Competitor, _ int) bool {
		return c.InClass(class.ID)
	})

	byCompetitor := make(map[int][]*model.Attempt)
	for _, a := range attempts {
		if class.ContainsSection(a.SectionID) {
			byCompetitor[a.CompetitorID] = append(byCompetitor[a.CompetitorID], a)
		}
	}

	courseSize := class.CourseSize()
	var complete, incomplete []*model.LeaderboardEntry
	for _, c := range entered {
		entry := tally(c, byCompetitor[c.ID])
		entry.Completed = entry.SectionsDone >= courseSize
		if entry.Completed {
			complete = append(complete, entry)
		} else {
			incomplete = append(incomplete, entry)
		}
	}

	slices.SortStableFunc(complete, compareEntries)
	slices.SortStableFunc(incomplete, compareEntries)

	// dense competition ranks for finishers only: equal (total, lastScoredAt)
	// keys share a rank, the next distinct key gets its 1-based position
	for i, entry := range complete {
		if i > 0 && sameKey(entry, complete[i-1]) {
			entry.Rank = complete[i-1].Rank
		} else {
			entry.Rank = i + 1
		}
	}

	board.Entries = append(complete, incomplete...)
	return board
}

// CalculateAll produces one leaderboard per catalog class, in catalog order.
func CalculateAll(
	catalog *model.Catalog,
	competitors []*model.Competitor,
	attempts []*model.Attempt,
) []*model.Leaderboard {
	return lo.Map(catalog.Classes, func(cls *model.Class, _ int) *model.Leaderboard {
		return Calculate(cls, competitors, attempts)
	})
}

// tally sums one competitor's attempts within the class sections.
// A DNS counts toward SectionsDone and DNSCount but adds nothing to Total.
func tally(c *model.Competitor, attempts []*model.Attempt) *model.LeaderboardEntry {
	entry := &model.LeaderboardEntry{Competitor: c}
	for _, a := range attempts {
		entry.SectionsDone++
		entry.Total += a.Outcome.Points()
		if a.Outcome.DNS {
			entry.DNSCount++
		}
		if a.CreatedAt.After(entry.LastScoredAt) {
			entry.LastScoredAt = a.CreatedAt
		}
	}
	return entry
}

// lower total wins; among equal totals the earlier finisher ranks higher
func compareEntries(a, b *model.LeaderboardEntry) int {
	if a.Total != b.Total {
		return a.Total - b.Total
	}
	return a.LastScoredAt.Compare(b.LastScoredAt)
}

func sameKey(a, b *model.LeaderboardEntry) bool {
	return a.Total == b.Total && a.LastScoredAt.Equal(b.LastScoredAt)
}
