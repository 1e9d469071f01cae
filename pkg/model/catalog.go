package model

// Section is a single observed section of the course.
// Sections are shared resources: several classes may reference the same section.
type Section struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Class is a competition grouping with its own lap count and section list.
type Class struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Laps is the number of laps required to complete the class.
	Laps int `json:"laps"`
	// Color is cosmetic display information, not used by the engine.
	Color string `json:"color"`
	// SectionIDs holds the member sections in course order.
	SectionIDs []int `json:"sectionIds"`
}

// CourseSize is the number of attempts needed to complete the class.
func (c *Class) CourseSize() int {
	return c.Laps * len(c.SectionIDs)
}

func (c *Class) ContainsSection(sectionID int) bool {
	for _, id := range c.SectionIDs {
		if id == sectionID {
			return true
		}
	}
	return false
}

// Catalog is an immutable snapshot of the event configuration.
// Gate and standings calculations operate on one snapshot so that a
// concurrent configuration edit cannot produce a partial result.
type Catalog struct {
	Sections []*Section
	Classes  []*Class
}

func (c *Catalog) SectionByID(id int) *Section {
	for _, s := range c.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (c *Catalog) ClassByID(id int) *Class {
	for _, cls := range c.Classes {
		if cls.ID == id {
			return cls
		}
	}
	return nil
}

// SectionName resolves a section id for display purposes.
func (c *Catalog) SectionName(id int) string {
	if s := c.SectionByID(id); s != nil {
		return s.Name
	}
	return ""
}
