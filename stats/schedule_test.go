package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	c "github.com/d0ngw/daystat/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failMigrator struct {
	calls int
}

func (p *failMigrator) Name() string {
	return "fail"
}

func (p *failMigrator) Migrate(ctx context.Context, verbosity int) (int64, error) {
	p.calls++
	return 0, errors.New("fail")
}

func TestMigrateSchedule(t *testing.T) {
	_, err := NewMigrateSchedule("migrate", nil, time.Second, 0)
	assert.Error(t, err)

	ctx := context.Background()
	store := NewMemoryStore()
	records := newVideoRecords()
	stat := newTestStatistic(t, store, records)
	require.NoError(t, stat.Update(ctx, Fields{"video": "v1"}))

	failed := &failMigrator{}
	schedule, err := NewMigrateSchedule("migrate", []Migrator{failed, stat}, 10*time.Millisecond, 0)
	require.NoError(t, err)

	services := c.NewServices(schedule)
	require.True(t, services.Init())
	require.True(t, services.Start())

	assert.Eventually(t, func() bool {
		return schedule.Rounds() >= 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, services.Stop())

	rec := records.get("v1", stat.Today())
	require.NotNil(t, rec)
	assert.EqualValues(t, 1, rec.Count)
	assert.True(t, failed.calls >= 2)
	assert.Equal(t, c.TERMINATED, schedule.State())
}
