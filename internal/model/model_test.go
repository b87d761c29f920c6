package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTeamMember_Status(t *testing.T) {
	cases := []struct {
		user, team bool
		want       MembershipStatus
	}{
		{true, true, MembershipActive},
		{false, true, MembershipPendingUser},
		{true, false, MembershipPendingTeam},
		{false, false, MembershipInactive},
	}
	for _, c := range cases {
		m := &TeamMember{HasUserAccepted: c.user, HasTeamAccepted: c.team}
		assert.Equal(t, c.want, m.Status())
		assert.Equal(t, c.want == MembershipActive, m.IsActive())
	}
}

func TestTask_SetCompleted(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	task := &Task{}
	task.SetCompleted(true, t1)
	assert.True(t, task.IsCompleted)
	assert.Equal(t, t1, *task.CompletedAt)

	// true -> true 保留原完成时间
	task.SetCompleted(true, t2)
	assert.Equal(t, t1, *task.CompletedAt)

	task.SetCompleted(false, t2)
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)

	task.SetCompleted(false, t2)
	assert.Nil(t, task.CompletedAt)
}

func TestUser_DisplayNameAndAdmin(t *testing.T) {
	u := &User{Username: "octocat", Role: "user"}
	assert.Equal(t, "octocat", u.DisplayName())
	assert.False(t, u.IsAdmin())

	u.FullName = "Mona Lisa"
	u.Role = "superadmin"
	assert.Equal(t, "Mona Lisa", u.DisplayName())
	assert.True(t, u.IsAdmin())
}
