package model

// Competitor is a rider entered in the event.
// The bib Number is unique across all competitors.
// A competitor may be entered in zero, one or many classes.
type Competitor struct {
	ID       int    `json:"id"`
	Number   int    `json:"number"`
	Name     string `json:"name"`
	ClassIDs []int  `json:"classIds"`
}

func (c *Competitor) InClass(classID int) bool {
	for _, id := range c.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}
