package model

import "time"

// ProgressionResult is the gate's decision for a proposed attempt.
type ProgressionResult struct {
	// NextLap is the lap number a new attempt would be recorded as.
	// Only meaningful when Allowed is true.
	NextLap int `json:"nextLap"`
	// CurrentLap is the lap the competitor is currently in, derived from
	// the most advanced relevant class (0 before the first attempt).
	CurrentLap int `json:"currentLap"`
	Allowed    bool `json:"allowed"`
	// CourseComplete is set when the attempt would exceed the lap count
	// of a relevant class. Distinct from being blocked.
	CourseComplete bool `json:"courseComplete"`
	// BlockingSections names the sections that must be completed for the
	// current lap before the competitor may advance.
	BlockingSections []string `json:"blockingSections,omitempty"`
}

// LeaderboardEntry is one row of a class leaderboard.
// Rank is 0 for competitors that have not completed the full course.
type LeaderboardEntry struct {
	Competitor   *Competitor `json:"competitor"`
	Rank         int         `json:"rank"`
	Total        int         `json:"total"`
	SectionsDone int         `json:"sectionsDone"`
	DNSCount     int         `json:"dnsCount"`
	Completed    bool        `json:"completed"`
	// LastScoredAt is the creation time of the latest counted attempt,
	// zero when the competitor has not been scored yet.
	LastScoredAt time.Time `json:"lastScoredAt"`
}

// Leaderboard is the ranked standings of one class.
// Completed competitors precede incomplete ones; within each partition the
// order is (total asc, lastScoredAt asc).
type Leaderboard struct {
	ClassID   int    `json:"classId"`
	ClassName string `json:"className"`
	// Valid is false when the class configuration cannot produce a
	// meaningful leaderboard (no sections or no laps).
	Valid   bool                `json:"valid"`
	Entries []*LeaderboardEntry `json:"entries"`
}
