package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
)

func TestAuthorize_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	for _, entity := range []interface{}{&model.Team{}, &model.Project{}, &model.TaskList{}, &model.Task{}, &model.TeamMember{}, &model.User{}} {
		err := env.svc.Authz.Authorize(env.ctx, nil, ActionRead, entity)
		assert.ErrorIs(t, err, pkgErrors.ErrUnauthenticated)
	}
}

func TestAuthorize_OutsiderSeesNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signIn(t, "owner")
	outsider := env.signIn(t, "outsider")
	team, project, list := env.defaults(t, owner)
	task := env.createTask(t, owner, list.ID, "secret", nil)

	_, err := env.svc.Teams.Get(env.ctx, outsider, team.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.Projects.Get(env.ctx, outsider, project.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.TaskLists.List(env.ctx, outsider, project.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.Tasks.Get(env.ctx, outsider, task.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.Tasks.Create(env.ctx, outsider, &dto.CreateTaskRequest{ListID: list.ID, Title: "x"})
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.Projects.Create(env.ctx, outsider, &dto.CreateProjectRequest{TeamID: team.ID, Title: "x"})
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.TaskLists.Create(env.ctx, outsider, &dto.CreateTaskListRequest{ProjectID: project.ID, Title: "x"})
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.Members.List(env.ctx, outsider, &dto.MemberListQuery{TeamID: team.ID})
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	// 需要所有权的修改只比较 owner_id
	_, err = env.svc.Teams.Update(env.ctx, outsider, team.ID, &dto.UpdateTeamRequest{Title: strPtr("mine")})
	assert.ErrorIs(t, err, pkgErrors.ErrUnauthorized)

	err = env.svc.Projects.Delete(env.ctx, outsider, project.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrUnauthorized)

	err = env.svc.TaskLists.Delete(env.ctx, outsider, list.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrUnauthorized)
}

func TestMembership_InviteAcceptFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signIn(t, "owner")
	guest := env.signIn(t, "guest")
	team, project, list := env.defaults(t, owner)

	invited, err := env.svc.Members.Invite(env.ctx, owner, &dto.InviteMemberRequest{TeamID: team.ID, Email: guest.Email})
	require.NoError(t, err)
	assert.Equal(t, string(model.MembershipPendingUser), invited.Status)
	require.NotNil(t, invited.User)
	assert.Equal(t, "guest", invited.User.Username)

	pending, err := env.svc.Members.List(env.ctx, guest, &dto.MemberListQuery{Pending: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, team.ID, pending[0].TeamID)

	// 未接受前按非成员处理
	_, err = env.svc.Teams.Get(env.ctx, guest, team.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	// 成员本人不能代替团队确认
	_, err = env.svc.Members.Update(env.ctx, guest, invited.ID, &dto.UpdateMemberRequest{HasTeamAccepted: boolPtr(false)})
	require.NoError(t, err)

	accepted, err := env.svc.Members.Update(env.ctx, guest, invited.ID, &dto.UpdateMemberRequest{HasUserAccepted: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, string(model.MembershipActive), accepted.Status)

	pending, err = env.svc.Members.List(env.ctx, guest, &dto.MemberListQuery{Pending: true})
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := env.svc.Teams.Get(env.ctx, guest, team.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, got.ID)

	teams, err := env.svc.Teams.List(env.ctx, guest)
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	// active 成员可以读写任务
	task := env.createTask(t, guest, list.ID, "from guest", nil)
	assert.Equal(t, guest.ID, task.OwnerID)
	_, err = env.svc.Tasks.Update(env.ctx, guest, task.ID, &dto.UpdateTaskRequest{AssigneeID: strPtr(owner.ID)})
	require.NoError(t, err)

	// 但不能创建项目或在他人项目中创建任务列表
	_, err = env.svc.Projects.Create(env.ctx, guest, &dto.CreateProjectRequest{TeamID: team.ID, Title: "x"})
	assert.ErrorIs(t, err, pkgErrors.ErrUnauthorized)

	_, err = env.svc.TaskLists.Create(env.ctx, guest, &dto.CreateTaskListRequest{ProjectID: project.ID, Title: "x"})
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)

	_, err = env.svc.Projects.Update(env.ctx, guest, project.ID, &dto.UpdateProjectRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, pkgErrors.ErrUnauthorized)

	// 团队所有者可以撤回团队确认
	revoked, err := env.svc.Members.Update(env.ctx, owner, invited.ID, &dto.UpdateMemberRequest{HasTeamAccepted: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, string(model.MembershipPendingTeam), revoked.Status)

	_, err = env.svc.Tasks.Get(env.ctx, guest, task.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)
}

func TestMembership_InviteIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signIn(t, "owner")
	guest := env.signIn(t, "guest")
	team, _, _ := env.defaults(t, owner)

	first, err := env.svc.Members.Invite(env.ctx, owner, &dto.InviteMemberRequest{TeamID: team.ID, Email: guest.Email})
	require.NoError(t, err)
	second, err := env.svc.Members.Invite(env.ctx, owner, &dto.InviteMemberRequest{TeamID: team.ID, Email: guest.Email})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&model.TeamMember{}).Where("team_id = ? AND user_id = ?", team.ID, guest.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMembership_InviteErrors(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signIn(t, "owner")
	guest := env.signIn(t, "guest")
	team, _, _ := env.defaults(t, owner)

	_, err := env.svc.Members.Invite(env.ctx, owner, &dto.InviteMemberRequest{TeamID: team.ID, Email: "nobody@example.com"})
	assert.ErrorIs(t, err, pkgErrors.ErrUserNotFound)

	_, err = env.svc.Members.Invite(env.ctx, guest, &dto.InviteMemberRequest{TeamID: team.ID, Email: owner.Email})
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)
}

func TestMembership_OwnerRowIsProtected(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signIn(t, "owner")
	team, _, _ := env.defaults(t, owner)

	members, err := env.svc.Members.List(env.ctx, owner, &dto.MemberListQuery{TeamID: team.ID})
	require.NoError(t, err)
	require.Len(t, members, 1)

	err = env.svc.Members.Delete(env.ctx, owner, members[0].ID)
	assert.ErrorIs(t, err, pkgErrors.ErrTeamOwnerMembership)

	updated, err := env.svc.Members.Update(env.ctx, owner, members[0].ID, &dto.UpdateMemberRequest{HasUserAccepted: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, string(model.MembershipActive), updated.Status)
}

func TestMembership_MemberCanLeave(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signIn(t, "owner")
	guest := env.signIn(t, "guest")
	team, _, _ := env.defaults(t, owner)
	membership := env.join(t, owner, guest, team.ID)

	require.NoError(t, env.svc.Members.Delete(env.ctx, guest, membership.ID))

	_, err := env.svc.Teams.Get(env.ctx, guest, team.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotFound)
}

func TestUsers_Get(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signIn(t, "alice")
	bob := env.signIn(t, "bob")

	me, err := env.svc.Users.Get(env.ctx, alice, constants.UserIDMe)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, me.ID)

	_, err = env.svc.Users.Get(env.ctx, alice, bob.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrUnauthorized)

	alice.Role = constants.RoleAdmin
	other, err := env.svc.Users.Get(env.ctx, alice, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", other.Username)

	_, err = env.svc.Users.Get(env.ctx, alice, "missing")
	assert.ErrorIs(t, err, pkgErrors.ErrUserNotFound)

	_, err = env.svc.Users.Get(env.ctx, nil, constants.UserIDMe)
	assert.ErrorIs(t, err, pkgErrors.ErrUnauthenticated)
}
