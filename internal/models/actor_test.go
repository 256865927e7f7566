package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorFor(t *testing.T) {
	hostel := CategoryHostel

	actor, err := ActorFor(&User{ID: "s", Role: RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, StudentActor{ID: "s"}, actor)

	actor, err = ActorFor(&User{ID: "a", Role: RoleSchoolAdmin, Category: &hostel})
	require.NoError(t, err)
	assert.Equal(t, SchoolAdminActor{ID: "a", Category: CategoryHostel}, actor)
	assert.Equal(t, RoleSchoolAdmin, actor.Role())

	actor, err = ActorFor(&User{ID: "c", Role: RoleCentralAdmin})
	require.NoError(t, err)
	assert.Equal(t, "c", actor.ActorID())
}

func TestActorForRejectsBrokenAccounts(t *testing.T) {
	_, err := ActorFor(&User{ID: "a", Role: RoleSchoolAdmin})
	assert.Error(t, err)

	bogus := Category("library")
	_, err = ActorFor(&User{ID: "a", Role: RoleSchoolAdmin, Category: &bogus})
	assert.Error(t, err)

	_, err = ActorFor(&User{ID: "x", Role: "janitor"})
	assert.Error(t, err)

	_, err = ActorFor(nil)
	assert.Error(t, err)
}

func TestUserJSONHidesSecrets(t *testing.T) {
	hash := "$2a$10$secret"
	code := "123456"
	raw, err := json.Marshal(User{ID: "u", PasswordHash: &hash, OTPCode: &code})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), hash)
	assert.NotContains(t, string(raw), code)
}

func TestCanAuthenticate(t *testing.T) {
	hash := "h"
	assert.False(t, (&User{IsVerified: true}).CanAuthenticate())
	assert.False(t, (&User{PasswordHash: &hash}).CanAuthenticate())
	assert.True(t, (&User{IsVerified: true, PasswordHash: &hash}).CanAuthenticate())
}

func TestFlagTransitionSuspended(t *testing.T) {
	tr := FlagTransition{Before: FlagState{FlagCount: 2}, After: FlagState{FlagCount: 3, IsSuspended: true}}
	assert.True(t, tr.Suspended())
	tr.Before.IsSuspended = true
	assert.False(t, tr.Suspended())
}

func TestComplaintStatusTerminal(t *testing.T) {
	assert.False(t, ComplaintPending.Terminal())
	assert.True(t, ComplaintResolved.Terminal())
	assert.True(t, ComplaintFalse.Terminal())
}
