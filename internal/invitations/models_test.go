package invitations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.True(t, StatusAccepted.IsValid())
	assert.True(t, StatusRejected.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.False(t, Status("EXPIRED").IsValid())
	assert.False(t, Status("").IsValid())
	assert.False(t, Status("pending").IsValid())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusAccepted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	// Unknown statuses are not terminal either; they are invalid.
	assert.False(t, Status("EXPIRED").IsTerminal())
}

func TestTeamRoleIsValid(t *testing.T) {
	assert.True(t, RoleLead.IsValid())
	assert.True(t, RoleMember.IsValid())
	assert.False(t, TeamRole("OWNER").IsValid())
	assert.False(t, TeamRole("").IsValid())
}
