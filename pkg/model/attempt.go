package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Outcome is the judged result of one attempt: either a penalty value
// from the closed set {0,1,2,3,5} or a "did not start" marker.
// The two are mutually exclusive.
type Outcome struct {
	Penalty int  `json:"penalty"`
	DNS     bool `json:"dns"`
}

func (o Outcome) Valid() bool {
	if o.DNS {
		return o.Penalty == 0
	}
	switch o.Penalty {
	case 0, 1, 2, 3, 5:
		return true
	}
	return false
}

// Points is the outcome's contribution to a competitor's total.
// A DNS contributes zero; it is reported via a separate counter instead.
func (o Outcome) Points() int {
	if o.DNS {
		return 0
	}
	return o.Penalty
}

// Attempt is one recorded outcome for a competitor at one section on one lap.
// The triple (CompetitorID, SectionID, Lap) is unique; corrections mutate
// Outcome in place and stamp UpdatedAt, they never create a second row.
type Attempt struct {
	ID           uuid.UUID  `json:"id"`
	CompetitorID int        `json:"competitorId"`
	SectionID    int        `json:"sectionId"`
	Lap          int        `json:"lap"`
	Outcome      Outcome    `json:"outcome"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}
