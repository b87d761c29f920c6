package model

const TeamTableName = "teams"
const TeamMemberTableName = "team_members"

// Team 团队
type Team struct {
	BaseModel
	OwnerID string `gorm:"size:36;not null;index" json:"owner_id"`
	Title   string `gorm:"size:200;not null" json:"title"`
}

func (Team) TableName() string {
	return TeamTableName
}

// MembershipStatus 成员关系状态，由两个确认标志推导
type MembershipStatus string

const (
	MembershipActive      MembershipStatus = "active"
	MembershipPendingUser MembershipStatus = "pending_user" // 团队已邀请，用户未接受
	MembershipPendingTeam MembershipStatus = "pending_team" // 用户已申请，团队未接受
	MembershipInactive    MembershipStatus = "inactive"
)

// TeamMember 团队成员，(team_id, user_id) 的唯一性由查找或创建保证
type TeamMember struct {
	BaseModel
	TeamID          string `gorm:"size:36;not null;index" json:"team_id"`
	UserID          string `gorm:"size:36;not null;index" json:"user_id"`
	HasUserAccepted bool   `gorm:"not null;default:false" json:"has_user_accepted"`
	HasTeamAccepted bool   `gorm:"not null;default:false" json:"has_team_accepted"`

	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (TeamMember) TableName() string {
	return TeamMemberTableName
}

func (m *TeamMember) Status() MembershipStatus {
	switch {
	case m.HasUserAccepted && m.HasTeamAccepted:
		return MembershipActive
	case m.HasTeamAccepted:
		return MembershipPendingUser
	case m.HasUserAccepted:
		return MembershipPendingTeam
	default:
		return MembershipInactive
	}
}

// IsActive 双方均已确认
func (m *TeamMember) IsActive() bool {
	return m.Status() == MembershipActive
}
