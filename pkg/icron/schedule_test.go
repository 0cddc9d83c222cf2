package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTriggerInfo_Hourly(t *testing.T) {
	t.Parallel()

	ref := time.Date(2026, 8, 30, 12, 34, 0, 0, time.UTC)
	info, err := GetTriggerInfo("@hourly", ref)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), info.Last)
	assert.Equal(t, time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC), info.Next)
}

func TestGetTriggerInfo_FiveFieldExpression(t *testing.T) {
	t.Parallel()

	// The same field set cron.New parses, so a config value accepted
	// by the scheduler never fails here.
	ref := time.Date(2026, 8, 30, 12, 34, 0, 0, time.UTC)
	info, err := GetTriggerInfo("*/15 * * * *", ref)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC), info.Last)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 45, 0, 0, time.UTC), info.Next)
}

func TestGetTriggerInfo_EveryDescriptor(t *testing.T) {
	t.Parallel()

	ref := time.Now()
	info, err := GetTriggerInfo("@every 10m", ref)
	require.NoError(t, err)

	assert.False(t, info.Last.IsZero())
	assert.False(t, info.Last.After(ref))
	assert.True(t, info.Next.After(ref))
}

func TestGetTriggerInfo_InvalidExpression(t *testing.T) {
	t.Parallel()

	_, err := GetTriggerInfo("not a cron", time.Now())
	assert.Error(t, err)
}
