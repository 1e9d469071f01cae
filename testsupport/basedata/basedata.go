//nolint:errcheck // testsetup
package basedata

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	classrepos "github.com/trialslog/trial-score-manager-go/pkg/repository/class"
	competitorrepos "github.com/trialslog/trial-score-manager-go/pkg/repository/competitor"
	sectionrepos "github.com/trialslog/trial-score-manager-go/pkg/repository/section"
)

// Event is the reference catalog the repository and service tests build on:
// Clubman and Advanced share all six sections but Advanced rides one lap
// less, Expert has its own single section.
type Event struct {
	Sections []*model.Section
	Clubman  *model.Class
	Advanced *model.Class
	Expert   *model.Class
	Riders   []*model.Competitor
}

// CreateSampleEvent seeds the reference catalog plus three riders:
// #7 in Clubman+Advanced, #12 in Advanced, #30 in Expert.
func CreateSampleEvent(pool *pgxpool.Pool) *Event {
	ctx := context.Background()
	ret := &Event{}
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		names := []string{"Rocks", "Creek", "Logs", "Quarry", "Hillclimb", "Gully"}
		sectionIDs := make([]int, 0, len(names))
		for _, name := range names {
			section, err := sectionrepos.Create(ctx, tx, name)
			if err != nil {
				return err
			}
			ret.Sections = append(ret.Sections, section)
			sectionIDs = append(sectionIDs, section.ID)
		}
		var err error
		if ret.Clubman, err = classrepos.Create(ctx, tx, &model.Class{
			Name: "Clubman", Laps: 3, Color: "#2ecc71", SectionIDs: sectionIDs,
		}); err != nil {
			return err
		}
		if ret.Advanced, err = classrepos.Create(ctx, tx, &model.Class{
			Name: "Advanced", Laps: 2, Color: "#e74c3c", SectionIDs: sectionIDs,
		}); err != nil {
			return err
		}
		expertSection, err := sectionrepos.Create(ctx, tx, "Waterfall")
		if err != nil {
			return err
		}
		ret.Sections = append(ret.Sections, expertSection)
		if ret.Expert, err = classrepos.Create(ctx, tx, &model.Class{
			Name: "Expert", Laps: 4, Color: "#9b59b6",
			SectionIDs: []int{expertSection.ID},
		}); err != nil {
			return err
		}

		riders := []*model.Competitor{
			{Number: 7, Name: "Toni Marti", ClassIDs: []int{ret.Clubman.ID, ret.Advanced.ID}},
			{Number: 12, Name: "Emma Vidal", ClassIDs: []int{ret.Advanced.ID}},
			{Number: 30, Name: "Jack Peace", ClassIDs: []int{ret.Expert.ID}},
		}
		for _, r := range riders {
			created, err := competitorrepos.Create(ctx, tx, r)
			if err != nil {
				return err
			}
			ret.Riders = append(ret.Riders, created)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("CreateSampleEvent: %v\n", err)
	}
	return ret
}

// RiderByNumber returns the seeded competitor with the given bib number.
func (e *Event) RiderByNumber(number int) *model.Competitor {
	for _, r := range e.Riders {
		if r.Number == number {
			return r
		}
	}
	return nil
}

// SectionByName returns the seeded section with the given name.
func (e *Event) SectionByName(name string) *model.Section {
	for _, s := range e.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}
