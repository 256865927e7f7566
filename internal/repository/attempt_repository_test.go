package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptRepositoryDisabled(t *testing.T) {
	repo := NewAttemptRepository(nil, time.Minute)
	ctx := context.Background()

	n, err := repo.Increment(ctx, "STU1001")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Count(ctx, "STU1001")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, repo.Reset(ctx, "STU1001"))
	assert.NoError(t, repo.Close())
}

func TestAttemptKey(t *testing.T) {
	assert.Equal(t, "otp:attempts:STU1001", attemptKey("STU1001"))
}
