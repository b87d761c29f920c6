package service

import (
	"gorm.io/gorm"

	"taskhub/internal/core/event"
	"taskhub/internal/metrics"
	"taskhub/internal/pkg/config"
	"taskhub/internal/pkg/session"
	"taskhub/internal/repository"
)

// Deps 构建服务层所需的外部依赖
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Sessions session.Store // 仅 HTTP 服务需要
	Bus      *event.Bus
	Metrics  *metrics.Metrics
}

// Services 服务集合，命令行与HTTP共用
type Services struct {
	Authz     AuthorizationService
	Users     UserService
	Auth      AuthService
	Teams     TeamService
	Members   TeamMemberService
	Projects  ProjectService
	TaskLists TaskListService
	Tasks     TaskService
	Reconcile ReconcileService
}

// New 初始化 Repository 与 Service，并在总线上注册级联订阅
func New(deps Deps) *Services {
	db := deps.DB

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	memberRepo := repository.NewTeamMemberRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	listRepo := repository.NewTaskListRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	failureRepo := repository.NewCascadeFailureRepository(db)

	authz := NewAuthorizationService(teamRepo, memberRepo, projectRepo)
	users := NewUserService(userRepo, authz, deps.Bus)

	s := &Services{
		Authz:     authz,
		Users:     users,
		Auth:      NewAuthService(&deps.Config.Auth, deps.Sessions, userRepo, users),
		Teams:     NewTeamService(db, teamRepo, memberRepo, projectRepo, authz, deps.Bus),
		Members:   NewTeamMemberService(db, memberRepo, teamRepo, userRepo, users, authz, deps.Bus),
		Projects:  NewProjectService(db, projectRepo, teamRepo, listRepo, authz, deps.Bus),
		TaskLists: NewTaskListService(db, listRepo, projectRepo, taskRepo, authz, deps.Bus, deps.Metrics),
		Tasks:     NewTaskService(db, taskRepo, listRepo, authz, deps.Bus, deps.Metrics),
	}

	cascades := Cascades{
		Teams:     s.Teams,
		Members:   s.Members,
		Projects:  s.Projects,
		TaskLists: s.TaskLists,
		Failures:  failureRepo,
	}
	RegisterCascades(deps.Bus, cascades)

	s.Reconcile = NewReconcileService(failureRepo, userRepo, teamRepo, projectRepo, listRepo, cascades, deps.Metrics)
	return s
}
