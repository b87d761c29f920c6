package constants

// 用户角色
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// 身份来源
const (
	ProviderGitHub = "github"
	ProviderSeed   = "seed"
)

// 默认级联实体名称
const (
	DefaultTeamTitleFormat = "%s's Team"
	DefaultProjectTitle    = "New Project"
	DefaultTaskListTitle   = "Todo List"
)

// 数据库驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// JWT 相关
const (
	JWTTypeAccess = "access"
)

// Gin Context Key
const (
	ContextKeyUser    = "user"
	ContextKeySession = "session"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
	HeaderGatewaySecret = "X-Gateway-Secret"
)

// 路径参数别名
const (
	UserIDMe = "me"
)
