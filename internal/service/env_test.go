package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskhub/internal/core/event"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/testutil"
)

type testEnv struct {
	ctx context.Context
	db  *gorm.DB
	bus *event.Bus
	svc *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	bus := event.NewBus(nil, nil)
	return &testEnv{
		ctx: context.Background(),
		db:  db,
		bus: bus,
		svc: New(Deps{DB: db, Config: testutil.Config(""), Bus: bus}),
	}
}

func (e *testEnv) signIn(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := e.svc.Users.SignIn(e.ctx, &dto.SignInRequest{
		Provider:   "github",
		ExternalID: "ext-" + username,
		Username:   username,
		Email:      username + "@example.com",
	})
	require.NoError(t, err)
	return user
}

// defaults 返回用户登录后自动创建的团队、项目与任务列表
func (e *testEnv) defaults(t *testing.T, user *model.User) (*dto.TeamResponse, *dto.ProjectResponse, *dto.TaskListResponse) {
	t.Helper()
	teams, err := e.svc.Teams.List(e.ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, teams)

	projects, err := e.svc.Projects.List(e.ctx, user, teams[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, projects)

	lists, err := e.svc.TaskLists.List(e.ctx, user, projects[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, lists)

	return teams[0], projects[0], lists[0]
}

// join 邀请并接受，使 user 成为团队的 active 成员
func (e *testEnv) join(t *testing.T, owner, user *model.User, teamID string) *dto.TeamMemberResponse {
	t.Helper()
	invited, err := e.svc.Members.Invite(e.ctx, owner, &dto.InviteMemberRequest{TeamID: teamID, Email: user.Email})
	require.NoError(t, err)

	accepted, err := e.svc.Members.Update(e.ctx, user, invited.ID, &dto.UpdateMemberRequest{HasUserAccepted: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, string(model.MembershipActive), accepted.Status)
	return accepted
}

func (e *testEnv) createTask(t *testing.T, actor *model.User, listID, title string, position *int) *dto.TaskResponse {
	t.Helper()
	task, err := e.svc.Tasks.Create(e.ctx, actor, &dto.CreateTaskRequest{ListID: listID, Title: title, Position: position})
	require.NoError(t, err)
	return task
}

// taskPositions 按排序返回 标题 -> 位置
func (e *testEnv) taskPositions(t *testing.T, actor *model.User, listID string) map[string]int {
	t.Helper()
	tasks, err := e.svc.Tasks.List(e.ctx, actor, listID)
	require.NoError(t, err)
	out := make(map[string]int, len(tasks))
	for i, task := range tasks {
		require.Equal(t, i, task.Position, "positions must be dense")
		out[task.Title] = task.Position
	}
	return out
}

func intPtr(v int) *int { return &v }
func boolPtr(v bool) *bool { return &v }
func strPtr(v string) *string { return &v }
