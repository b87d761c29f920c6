package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/core/ordering"
	"taskhub/internal/model"
	"taskhub/internal/testutil"
	pkgErrors "taskhub/pkg/errors"
)

func TestTaskRepository_SiblingsOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []*model.Task{
		{BaseModel: model.BaseModel{ID: "old", CreatedAt: base}, ListID: "l1", Title: "old", Position: 1},
		{BaseModel: model.BaseModel{ID: "new", CreatedAt: base.Add(time.Minute)}, ListID: "l1", Title: "new", Position: 1},
		{BaseModel: model.BaseModel{ID: "first", CreatedAt: base}, ListID: "l1", Title: "first", Position: 0},
		{BaseModel: model.BaseModel{ID: "elsewhere", CreatedAt: base}, ListID: "l2", Title: "x", Position: 0},
	}
	for _, row := range rows {
		require.NoError(t, repo.Create(ctx, row))
	}

	siblings, err := repo.Siblings(ctx, "l1")
	require.NoError(t, err)
	// 同位置时新建的排在前面
	assert.Equal(t, []ordering.Item{
		{ID: "first", Position: 0},
		{ID: "new", Position: 1},
		{ID: "old", Position: 1},
	}, siblings)

	require.NoError(t, repo.ApplyPositions(ctx, ordering.Normalize(siblings)))
	siblings, err = repo.Siblings(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, []ordering.Item{
		{ID: "first", Position: 0},
		{ID: "new", Position: 1},
		{ID: "old", Position: 2},
	}, siblings)

	count, err := repo.CountByList(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTaskListRepository_Siblings(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTaskListRepository(db)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &model.TaskList{BaseModel: model.BaseModel{ID: id}, ProjectID: "p1", Title: id, Position: i}))
	}

	pos, updates := ordering.Insert(mustSiblings(t, repo, "p1"), intPtr(1))
	require.NoError(t, repo.ApplyPositions(ctx, updates))
	require.NoError(t, repo.Create(ctx, &model.TaskList{BaseModel: model.BaseModel{ID: "d"}, ProjectID: "p1", Title: "d", Position: pos}))

	lists, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	ids := make([]string, len(lists))
	for i, l := range lists {
		assert.Equal(t, i, l.Position)
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids)
}

func mustSiblings(t *testing.T, repo TaskListRepository, projectID string) []ordering.Item {
	t.Helper()
	items, err := repo.Siblings(context.Background(), projectID)
	require.NoError(t, err)
	return items
}

func intPtr(v int) *int { return &v }

func TestTeamMemberRepository_Queries(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	teams := NewTeamRepository(db)
	members := NewTeamMemberRepository(db)

	owner := &model.User{Provider: "github", ExternalID: "1", Username: "owner", Email: "owner@example.com"}
	guest := &model.User{Provider: "github", ExternalID: "2", Username: "guest", Email: "guest@example.com"}
	require.NoError(t, users.Create(ctx, owner))
	require.NoError(t, users.Create(ctx, guest))

	team := &model.Team{OwnerID: owner.ID, Title: "T"}
	require.NoError(t, teams.Create(ctx, team))
	require.NoError(t, members.Create(ctx, &model.TeamMember{TeamID: team.ID, UserID: owner.ID, HasUserAccepted: true, HasTeamAccepted: true}))
	invite := &model.TeamMember{TeamID: team.ID, UserID: guest.ID, HasTeamAccepted: true}
	require.NoError(t, members.Create(ctx, invite))

	pending, err := members.ListPendingByUser(ctx, guest.ID, WithPreload("User"))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].User)
	assert.Equal(t, "guest", pending[0].User.Username)

	others, err := members.CountOthers(ctx, team.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), others)

	active, err := teams.ListByActiveMember(ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	invite.HasUserAccepted = true
	require.NoError(t, members.Update(ctx, invite))
	active, err = teams.ListByActiveMember(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, team.ID, active[0].ID)

	found, err := members.FindByTeamAndUser(ctx, team.ID, guest.ID)
	require.NoError(t, err)
	assert.True(t, found.IsActive())

	_, err = members.FindByTeamAndUser(ctx, team.ID, "nobody")
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)

	byEmail, err := users.FindByEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, guest.ID, byEmail.ID)
}

func TestReconcileQueries(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	teams := NewTeamRepository(db)
	members := NewTeamMemberRepository(db)

	withTeam := &model.User{Provider: "github", ExternalID: "1", Username: "a"}
	without := &model.User{Provider: "github", ExternalID: "2", Username: "b"}
	blocked := &model.User{Provider: "github", ExternalID: "3", Username: "c", IsBlocked: true}
	for _, u := range []*model.User{withTeam, without, blocked} {
		require.NoError(t, users.Create(ctx, u))
	}

	memberless := &model.Team{OwnerID: withTeam.ID, Title: "no member"}
	complete := &model.Team{OwnerID: withTeam.ID, Title: "complete"}
	require.NoError(t, teams.Create(ctx, memberless))
	require.NoError(t, teams.Create(ctx, complete))
	require.NoError(t, members.Create(ctx, &model.TeamMember{TeamID: complete.ID, UserID: withTeam.ID, HasUserAccepted: true, HasTeamAccepted: true}))

	orphans, err := users.ListWithoutOwnedTeam(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, without.ID, orphans[0].ID)

	bare, err := teams.ListWithoutOwnerMember(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bare, 1)
	assert.Equal(t, memberless.ID, bare[0].ID)

	owned, err := teams.CountByOwner(ctx, withTeam.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), owned)
}

func TestCascadeFailureRepository_ListAndResolve(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewCascadeFailureRepository(db)

	first := &model.CascadeFailure{Event: "team.created", Subscriber: "project.default", SubjectID: "t1", Payload: []byte(`{"team":{"id":"t1"}}`), Error: "boom"}
	second := &model.CascadeFailure{Event: "project.created", Subscriber: "task-list.default", SubjectID: "p1", Payload: []byte(`{}`), Error: "boom"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	open, err := repo.ListOpen(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	require.NoError(t, repo.Resolve(ctx, []string{first.ID}, time.Now()))
	require.NoError(t, repo.Resolve(ctx, nil, time.Now()))

	open, err = repo.ListOpen(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)
}

func TestUserRepository_DuplicateIdentity(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Provider: "github", ExternalID: "42", Username: "a", Email: "a@example.com"}))

	err := repo.Create(ctx, &model.User{Provider: "github", ExternalID: "42", Username: "b", Email: "b@example.com"})
	assert.ErrorIs(t, err, pkgErrors.ErrDuplicateRecord)

	// 不同提供方的同一外部ID互不冲突
	require.NoError(t, repo.Create(ctx, &model.User{Provider: "gitlab", ExternalID: "42", Username: "c", Email: "c@example.com"}))
}
