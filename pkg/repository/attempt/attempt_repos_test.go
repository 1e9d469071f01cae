//nolint:dupl,funlen,errcheck // ok for this test code
package attempt

import (
	"context"
	"log"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/repository"
	"github.com/trialslog/trial-score-manager-go/testsupport/basedata"
	"github.com/trialslog/trial-score-manager-go/testsupport/testdb"
)

func sampleOutcome(penalty int) model.Outcome {
	return model.Outcome{Penalty: penalty}
}

func uuidMustNew() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

func createSampleEntry(pool *pgxpool.Pool, event *basedata.Event) *model.Attempt {
	ctx := context.Background()
	var ret *model.Attempt
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var err error
		ret, err = Create(ctx, tx, &model.Attempt{
			CompetitorID: event.RiderByNumber(7).ID,
			SectionID:    event.SectionByName("Rocks").ID,
			Lap:          1,
			Outcome:      sampleOutcome(1),
		})
		return err
	})
	if err != nil {
		log.Fatalf("createSampleEntry: %v\n", err)
	}
	return ret
}

func TestCreate(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	sample := createSampleEntry(pool, event)

	type args struct {
		attempt *model.Attempt
	}
	tests := []struct {
		name          string
		args          args
		wantErr       bool
		wantDuplicate bool
	}{
		{
			name: "new entry",
			args: args{attempt: &model.Attempt{
				CompetitorID: sample.CompetitorID,
				SectionID:    event.SectionByName("Creek").ID,
				Lap:          1,
				Outcome:      sampleOutcome(0),
			}},
		},
		{
			name: "dns entry",
			args: args{attempt: &model.Attempt{
				CompetitorID: sample.CompetitorID,
				SectionID:    event.SectionByName("Logs").ID,
				Lap:          1,
				Outcome:      model.Outcome{DNS: true},
			}},
		},
		{
			name: "duplicate triple",
			args: args{attempt: &model.Attempt{
				CompetitorID: sample.CompetitorID,
				SectionID:    sample.SectionID,
				Lap:          sample.Lap,
				Outcome:      sampleOutcome(3),
			}},
			wantErr:       true,
			wantDuplicate: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
				got, err := Create(ctx, tx, tt.args.attempt)
				if err == nil {
					assert.False(t, got.ID.IsNil())
					assert.False(t, got.CreatedAt.IsZero())
					assert.Nil(t, got.UpdatedAt)
				}
				return err
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantDuplicate {
				assert.True(t, repository.UniqueViolation(err))
			}
		})
	}
}

func TestLoadByCompetitorID(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	sample := createSampleEntry(pool, event)

	got, err := LoadByCompetitorID(context.Background(), pool, sample.CompetitorID)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, sample.ID, got[0].ID)
	assert.Equal(t, sampleOutcome(1), got[0].Outcome)

	got, err = LoadByCompetitorID(context.Background(),
		pool, event.RiderByNumber(12).ID)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadBySectionID(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	sample := createSampleEntry(pool, event)

	got, err := LoadBySectionID(context.Background(), pool, sample.SectionID)
	assert.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = LoadBySectionID(context.Background(),
		pool, event.SectionByName("Gully").ID)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateOutcome(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	sample := createSampleEntry(pool, event)
	ctx := context.Background()

	got, err := UpdateOutcome(ctx, pool, sample.ID, sampleOutcome(5))
	assert.NoError(t, err)
	assert.Equal(t, sampleOutcome(5), got.Outcome)
	assert.NotNil(t, got.UpdatedAt)
	// identity of the attempt never changes on correction
	assert.Equal(t, sample.Lap, got.Lap)
	assert.Equal(t, sample.SectionID, got.SectionID)

	// correction to dns clears the penalty
	got, err = UpdateOutcome(ctx, pool, sample.ID, model.Outcome{DNS: true})
	assert.NoError(t, err)
	assert.Equal(t, model.Outcome{DNS: true}, got.Outcome)

	_, err = UpdateOutcome(ctx, pool, uuidMustNew(), sampleOutcome(0))
	assert.ErrorIs(t, err, repository.ErrNoData)
}

func TestDelete(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	sample := createSampleEntry(pool, event)
	ctx := context.Background()

	num, err := DeleteByID(ctx, pool, sample.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, num)

	num, err = DeleteByID(ctx, pool, sample.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, num)
}

func TestDeleteAll(t *testing.T) {
	pool := testdb.InitTestDb()
	event := basedata.CreateSampleEvent(pool)
	createSampleEntry(pool, event)
	ctx := context.Background()

	num, err := DeleteAll(ctx, pool)
	assert.NoError(t, err)
	assert.Equal(t, 1, num)

	got, err := LoadAll(ctx, pool)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
