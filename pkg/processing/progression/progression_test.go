//nolint:funlen,dupl // ok for tests
package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
)

func sampleCatalog() *model.Catalog {
	return &model.Catalog{
		Sections: []*model.Section{
			{ID: 1, Name: "S1"},
			{ID: 2, Name: "S2"},
			{ID: 3, Name: "S3"},
			{ID: 4, Name: "S4"},
		},
		Classes: []*model.Class{
			{ID: 10, Name: "Clubman", Laps: 3, SectionIDs: []int{1, 2, 3}},
			{ID: 20, Name: "Advanced", Laps: 2, SectionIDs: []int{1, 2}},
			{ID: 30, Name: "Expert", Laps: 4, SectionIDs: []int{4}},
		},
	}
}

func attempt(competitorID, sectionID, lap int) *model.Attempt {
	return &model.Attempt{
		CompetitorID: competitorID,
		SectionID:    sectionID,
		Lap:          lap,
		CreatedAt:    time.Now(),
	}
}

func TestRelevantClasses(t *testing.T) {
	catalog := sampleCatalog()
	tests := []struct {
		name       string
		classIDs   []int
		sectionID  int
		wantNames  []string
	}{
		{
			name:      "single class",
			classIDs:  []int{10},
			sectionID: 3,
			wantNames: []string{"Clubman"},
		},
		{
			name:      "shared section across both memberships",
			classIDs:  []int{10, 20},
			sectionID: 1,
			wantNames: []string{"Clubman", "Advanced"},
		},
		{
			name:      "membership without section",
			classIDs:  []int{20},
			sectionID: 3,
			wantNames: []string{},
		},
		{
			name:      "no memberships",
			classIDs:  []int{},
			sectionID: 1,
			wantNames: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			competitor := &model.Competitor{ID: 7, ClassIDs: tt.classIDs}
			got := RelevantClasses(catalog, competitor, tt.sectionID)
			names := make([]string, 0, len(got))
			for _, cls := range got {
				names = append(names, cls.Name)
			}
			assert.ElementsMatch(t, tt.wantNames, names)
		})
	}
}

func TestEvaluate(t *testing.T) {
	catalog := sampleCatalog()
	type args struct {
		classIDs  []int
		sectionID int
		attempts  []*model.Attempt
	}
	tests := []struct {
		name string
		args args
		want *model.ProgressionResult
	}{
		{
			name: "first attempt ever",
			args: args{classIDs: []int{10}, sectionID: 1},
			want: &model.ProgressionResult{NextLap: 1, CurrentLap: 0, Allowed: true},
		},
		{
			name: "fill current lap at missing section",
			args: args{
				classIDs:  []int{10},
				sectionID: 2,
				attempts:  []*model.Attempt{attempt(7, 1, 1)},
			},
			want: &model.ProgressionResult{NextLap: 1, CurrentLap: 1, Allowed: true},
		},
		{
			name: "advance after full lap",
			args: args{
				classIDs:  []int{10},
				sectionID: 1,
				attempts: []*model.Attempt{
					attempt(7, 1, 1), attempt(7, 2, 1), attempt(7, 3, 1),
				},
			},
			want: &model.ProgressionResult{NextLap: 2, CurrentLap: 1, Allowed: true},
		},
		{
			name: "blocked before lap is complete",
			args: args{
				classIDs:  []int{10},
				sectionID: 1,
				attempts:  []*model.Attempt{attempt(7, 1, 1), attempt(7, 2, 1)},
			},
			want: &model.ProgressionResult{
				CurrentLap:       1,
				BlockingSections: []string{"S3"},
			},
		},
		{
			name: "unconstrained section ignores class gating",
			args: args{
				classIDs:  []int{20},
				sectionID: 3,
				attempts:  []*model.Attempt{attempt(7, 3, 2)},
			},
			want: &model.ProgressionResult{NextLap: 3, CurrentLap: 2, Allowed: true},
		},
		{
			name: "shared section couples classes",
			args: args{
				// lap 1 done for Advanced {S1,S2}, Clubman still missing S3.
				// advancing S1 is gated by Clubman even though Advanced
				// alone would allow it
				classIDs:  []int{10, 20},
				sectionID: 1,
				attempts:  []*model.Attempt{attempt(7, 1, 1), attempt(7, 2, 1)},
			},
			want: &model.ProgressionResult{
				CurrentLap:       1,
				BlockingSections: []string{"S3"},
			},
		},
		{
			name: "blocking union names all missing sections",
			args: args{
				classIDs:  []int{10, 20},
				sectionID: 1,
				attempts:  []*model.Attempt{attempt(7, 1, 1)},
			},
			want: &model.ProgressionResult{
				CurrentLap:       1,
				BlockingSections: []string{"S2", "S3"},
			},
		},
		{
			name: "course complete at class lap cap",
			args: args{
				classIDs:  []int{20},
				sectionID: 1,
				attempts: []*model.Attempt{
					attempt(7, 1, 1), attempt(7, 2, 1),
					attempt(7, 1, 2), attempt(7, 2, 2),
				},
			},
			want: &model.ProgressionResult{CurrentLap: 2, CourseComplete: true},
		},
		{
			name: "smaller class cap refuses shared section first",
			args: args{
				// Clubman allows 3 laps but Advanced caps S1 at 2
				classIDs:  []int{10, 20},
				sectionID: 1,
				attempts: []*model.Attempt{
					attempt(7, 1, 1), attempt(7, 2, 1), attempt(7, 3, 1),
					attempt(7, 1, 2), attempt(7, 2, 2), attempt(7, 3, 2),
				},
			},
			want: &model.ProgressionResult{CurrentLap: 2, CourseComplete: true},
		},
		{
			name: "course complete wins over blocked",
			args: args{
				// Advanced lap 2 only partially done but S1 already at the
				// cap: the cap is the condition that surfaces
				classIDs:  []int{20},
				sectionID: 1,
				attempts: []*model.Attempt{
					attempt(7, 1, 1), attempt(7, 2, 1), attempt(7, 1, 2),
				},
			},
			want: &model.ProgressionResult{CurrentLap: 2, CourseComplete: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			competitor := &model.Competitor{ID: 7, Number: 7, ClassIDs: tt.args.classIDs}
			got := Evaluate(catalog, competitor, tt.args.sectionID, tt.args.attempts)
			assert.Equal(t, tt.want.NextLap, got.NextLap, "nextLap")
			assert.Equal(t, tt.want.CurrentLap, got.CurrentLap, "currentLap")
			assert.Equal(t, tt.want.Allowed, got.Allowed, "allowed")
			assert.Equal(t, tt.want.CourseComplete, got.CourseComplete, "courseComplete")
			assert.Equal(t, tt.want.BlockingSections, got.BlockingSections)
		})
	}
}

// the walkthrough from the scoring contract: Advanced {S1,S2}, 2 laps
func TestEvaluateScenarioAdvanced(t *testing.T) {
	catalog := &model.Catalog{
		Sections: []*model.Section{{ID: 1, Name: "S1"}, {ID: 2, Name: "S2"}},
		Classes: []*model.Class{
			{ID: 20, Name: "Advanced", Laps: 2, SectionIDs: []int{1, 2}},
		},
	}
	competitor := &model.Competitor{ID: 7, Number: 7, ClassIDs: []int{20}}
	attempts := []*model.Attempt{attempt(7, 1, 1), attempt(7, 2, 1)}

	// lap 1 complete: either section may advance to lap 2
	res := Evaluate(catalog, competitor, 1, attempts)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.CurrentLap)
	assert.Equal(t, 2, res.NextLap)
	res = Evaluate(catalog, competitor, 2, attempts)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.NextLap)

	// S1 scored for lap 2 only
	attempts = append(attempts, attempt(7, 1, 2))

	// S2 lap 2 is a fill of the current lap, not blocked
	res = Evaluate(catalog, competitor, 2, attempts)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.NextLap)

	// S1 lap 3 would exceed the two configured laps
	res = Evaluate(catalog, competitor, 1, attempts)
	assert.False(t, res.Allowed)
	assert.True(t, res.CourseComplete)
}

// laps must come out as 1,2,3,... with no gaps when nothing blocks
func TestEvaluateMonotonicLaps(t *testing.T) {
	catalog := &model.Catalog{
		Sections: []*model.Section{{ID: 1, Name: "S1"}},
		Classes: []*model.Class{
			{ID: 30, Name: "Expert", Laps: 4, SectionIDs: []int{1}},
		},
	}
	competitor := &model.Competitor{ID: 9, Number: 9, ClassIDs: []int{30}}
	attempts := []*model.Attempt{}
	for wantLap := 1; wantLap <= 4; wantLap++ {
		res := Evaluate(catalog, competitor, 1, attempts)
		assert.True(t, res.Allowed)
		assert.Equal(t, wantLap, res.NextLap)
		attempts = append(attempts, attempt(9, 1, res.NextLap))
	}
	res := Evaluate(catalog, competitor, 1, attempts)
	assert.True(t, res.CourseComplete)
}

func TestEvaluateReportsUnknownSection(t *testing.T) {
	catalog := &model.Catalog{
		Sections: []*model.Section{{ID: 1, Name: "S1"}},
		Classes: []*model.Class{
			// section 99 has no section record
			{ID: 10, Name: "Clubman", Laps: 2, SectionIDs: []int{1, 99}},
		},
	}
	competitor := &model.Competitor{ID: 7, ClassIDs: []int{10}}
	attempts := []*model.Attempt{attempt(7, 1, 1)}
	res := Evaluate(catalog, competitor, 1, attempts)
	assert.False(t, res.Allowed)
	assert.Equal(t, []string{"unknown section #99"}, res.BlockingSections)
}
