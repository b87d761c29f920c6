package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/repository"
	"taskhub/pkg/constants"
	pkgErrors "taskhub/pkg/errors"
)

var hookSeq atomic.Int64

// onNextQuery 在下一次查询 table 的语句完成后执行一次 fn，用来模拟两条语句之间提交的并发请求
func (e *testEnv) onNextQuery(t *testing.T, table string, fn func()) {
	t.Helper()
	var fired atomic.Bool
	name := fmt.Sprintf("test:after_query:%d", hookSeq.Add(1))
	err := e.db.Callback().Query().After("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table || !fired.CompareAndSwap(false, true) {
			return
		}
		fn()
	})
	require.NoError(t, err)
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent request did not finish")
		return nil
	}
}

func TestProjectDelete_SerializesWithTaskListInsert(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.signIn(t, "u1")
	_, p1, l1 := env.defaults(t, u1)
	require.NoError(t, env.svc.TaskLists.Delete(env.ctx, u1, l1.ID))

	var project model.Project
	require.NoError(t, env.db.First(&project, "id = ?", p1.ID).Error)

	// 删除事务统计任务列表之后，另一个请求尝试向该项目插入列表
	late := make(chan error, 1)
	env.onNextQuery(t, "task_lists", func() {
		go func() {
			_, err := env.svc.TaskLists.Provision(env.ctx, &project, u1.ID, "Late", nil)
			late <- err
		}()
	})

	require.NoError(t, env.svc.Projects.Delete(env.ctx, u1, p1.ID))
	assert.ErrorIs(t, waitErr(t, late), pkgErrors.ErrRecordNotFound)

	var orphans int64
	require.NoError(t, env.db.Model(&model.TaskList{}).Where("project_id = ?", p1.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestTeamDelete_SerializesWithProjectInsert(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.signIn(t, "u1")
	env.defaults(t, u1)

	side, err := env.svc.Teams.Create(env.ctx, u1, &dto.CreateTeamRequest{Title: "Side"})
	require.NoError(t, err)
	projects, err := env.svc.Projects.List(env.ctx, u1, side.ID)
	require.NoError(t, err)
	for _, p := range projects {
		lists, err := env.svc.TaskLists.List(env.ctx, u1, p.ID)
		require.NoError(t, err)
		for _, l := range lists {
			require.NoError(t, env.svc.TaskLists.Delete(env.ctx, u1, l.ID))
		}
		require.NoError(t, env.svc.Projects.Delete(env.ctx, u1, p.ID))
	}

	late := make(chan error, 1)
	env.onNextQuery(t, "projects", func() {
		go func() {
			_, err := env.svc.Projects.Provision(env.ctx, side.ID, u1.ID, "Late")
			late <- err
		}()
	})

	require.NoError(t, env.svc.Teams.Delete(env.ctx, u1, side.ID))
	assert.ErrorIs(t, waitErr(t, late), pkgErrors.ErrRecordNotFound)

	var orphans int64
	require.NoError(t, env.db.Model(&model.Project{}).Where("team_id = ?", side.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestProjectProvision_MissingTeam(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.signIn(t, "u1")

	_, err := env.svc.Projects.Provision(env.ctx, "missing-team", u1.ID, "P")
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)

	var count int64
	require.NoError(t, env.db.Model(&model.Project{}).Where("team_id = ?", "missing-team").Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskListDelete_SerializesWithTaskInsert(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.signIn(t, "u1")
	_, p1, l1 := env.defaults(t, u1)
	spare, err := env.svc.TaskLists.Create(env.ctx, u1, &dto.CreateTaskListRequest{ProjectID: p1.ID, Title: "Spare"})
	require.NoError(t, err)

	late := make(chan error, 1)
	env.onNextQuery(t, "tasks", func() {
		go func() {
			_, err := env.svc.Tasks.Create(env.ctx, u1, &dto.CreateTaskRequest{ListID: spare.ID, Title: "Late"})
			late <- err
		}()
	})

	require.NoError(t, env.svc.TaskLists.Delete(env.ctx, u1, spare.ID))
	assert.Error(t, waitErr(t, late))

	var orphans int64
	require.NoError(t, env.db.Model(&model.Task{}).Where("list_id = ?", spare.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	lists, err := env.svc.TaskLists.List(env.ctx, u1, p1.ID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, l1.ID, lists[0].ID)
}

func TestTaskDelete_AfterConcurrentMove(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.signIn(t, "u1")
	_, p1, listA := env.defaults(t, u1)
	listB, err := env.svc.TaskLists.Create(env.ctx, u1, &dto.CreateTaskListRequest{ProjectID: p1.ID, Title: "B"})
	require.NoError(t, err)

	x := env.createTask(t, u1, listA.ID, "X", nil)
	env.createTask(t, u1, listA.ID, "Y", nil)
	env.createTask(t, u1, listB.ID, "Z", nil)

	// 删除请求读到任务之后，另一个请求把它移到了列表 B
	var moveErr error
	env.onNextQuery(t, "tasks", func() {
		_, moveErr = env.svc.Tasks.Update(env.ctx, u1, x.ID, &dto.UpdateTaskRequest{ListID: &listB.ID, Position: intPtr(0)})
	})

	require.NoError(t, env.svc.Tasks.Delete(env.ctx, u1, x.ID))
	require.NoError(t, moveErr)

	assert.Equal(t, map[string]int{"Y": 0}, env.taskPositions(t, u1, listA.ID))
	assert.Equal(t, map[string]int{"Z": 0}, env.taskPositions(t, u1, listB.ID))
}

func TestTaskUpdate_AfterConcurrentMove(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.signIn(t, "u1")
	_, p1, listA := env.defaults(t, u1)
	listB, err := env.svc.TaskLists.Create(env.ctx, u1, &dto.CreateTaskListRequest{ProjectID: p1.ID, Title: "B"})
	require.NoError(t, err)

	x := env.createTask(t, u1, listA.ID, "X", nil)
	env.createTask(t, u1, listB.ID, "Z1", nil)
	env.createTask(t, u1, listB.ID, "Z2", nil)

	var moveErr error
	env.onNextQuery(t, "tasks", func() {
		_, moveErr = env.svc.Tasks.Update(env.ctx, u1, x.ID, &dto.UpdateTaskRequest{ListID: &listB.ID})
	})

	updated, err := env.svc.Tasks.Update(env.ctx, u1, x.ID, &dto.UpdateTaskRequest{Position: intPtr(0)})
	require.NoError(t, err)
	require.NoError(t, moveErr)
	assert.Equal(t, listB.ID, updated.ListID)
	assert.Equal(t, 0, updated.Position)

	assert.Empty(t, env.taskPositions(t, u1, listA.ID))
	assert.Equal(t, map[string]int{"X": 0, "Z1": 1, "Z2": 2}, env.taskPositions(t, u1, listB.ID))
}

func TestSignIn_ConcurrentFirstLogin(t *testing.T) {
	env := newTestEnv(t)
	req := &dto.SignInRequest{Provider: "github", ExternalID: "ext-racer", Username: "racer", Email: "racer@example.com"}

	// 身份查询未命中之后，另一个请求先完成了注册
	winner := &model.User{Role: constants.RoleUser, Provider: req.Provider, ExternalID: req.ExternalID, Username: "first", Email: req.Email}
	var createErr error
	env.onNextQuery(t, "users", func() {
		createErr = repository.NewUserRepository(env.db).Create(env.ctx, winner)
	})

	user, err := env.svc.Users.SignIn(env.ctx, req)
	require.NoError(t, err)
	require.NoError(t, createErr)
	assert.Equal(t, winner.ID, user.ID)
	assert.Equal(t, "racer", user.Username)

	var users, teams int64
	require.NoError(t, env.db.Model(&model.User{}).Count(&users).Error)
	require.NoError(t, env.db.Model(&model.Team{}).Count(&teams).Error)
	assert.EqualValues(t, 1, users)
	// 级联由先注册的一方负责
	assert.Zero(t, teams)
}

func TestMemberUpdate_KeepsConcurrentRevoke(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signIn(t, "owner")
	guest := env.signIn(t, "guest")
	team, _, _ := env.defaults(t, owner)

	invited, err := env.svc.Members.Invite(env.ctx, owner, &dto.InviteMemberRequest{TeamID: team.ID, Email: guest.Email})
	require.NoError(t, err)

	// 成员接受邀请的同时，所有者撤回了团队确认
	var revokeErr error
	env.onNextQuery(t, "team_members", func() {
		_, revokeErr = env.svc.Members.Update(env.ctx, owner, invited.ID, &dto.UpdateMemberRequest{HasTeamAccepted: boolPtr(false)})
	})

	accepted, err := env.svc.Members.Update(env.ctx, guest, invited.ID, &dto.UpdateMemberRequest{HasUserAccepted: boolPtr(true)})
	require.NoError(t, err)
	require.NoError(t, revokeErr)
	assert.Equal(t, string(model.MembershipPendingTeam), accepted.Status)

	var row model.TeamMember
	require.NoError(t, env.db.First(&row, "id = ?", invited.ID).Error)
	assert.True(t, row.HasUserAccepted)
	assert.False(t, row.HasTeamAccepted)
}
