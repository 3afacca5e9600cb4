package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncCommand_TripsAtCap(t *testing.T) {
	c := New(Config{MaxCommandCount: 3})
	for i := 0; i < 3; i++ {
		require.NoError(t, c.IncCommand())
	}
	err := c.IncCommand()
	require.Error(t, err)
	var limitErr ErrExecutionLimit
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "command_count", limitErr.Counter)
	assert.EqualValues(t, 3, limitErr.Cap)
}

func TestIncCommand_ZeroCapIsUnlimited(t *testing.T) {
	c := New(Config{MaxCommandCount: 0})
	for i := 0; i < 10_000; i++ {
		require.NoError(t, c.IncCommand())
	}
}

func TestEnterCall_DecrementsOnExit(t *testing.T) {
	c := New(Config{MaxCallDepth: 2})

	exit1, err := c.EnterCall()
	require.NoError(t, err)
	exit2, err := c.EnterCall()
	require.NoError(t, err)

	_, err = c.EnterCall()
	require.Error(t, err)

	exit2()
	_, err = c.EnterCall()
	require.NoError(t, err)

	exit1()
}

func TestIncAwkIteration_TripsAtCap(t *testing.T) {
	c := New(Config{MaxAwkIterations: 2})
	require.NoError(t, c.IncAwkIteration())
	require.NoError(t, c.IncAwkIteration())
	require.Error(t, c.IncAwkIteration())
}

func TestNilCounters_AreNoOps(t *testing.T) {
	var c *Counters
	require.NoError(t, c.IncCommand())
	require.NoError(t, c.IncAwkIteration())
	exit, err := c.EnterCall()
	require.NoError(t, err)
	exit()
	assert.Zero(t, c.CommandCount())
}
