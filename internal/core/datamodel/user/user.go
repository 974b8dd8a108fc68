package user

import "time"

const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

type User struct {
	ID          string     `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   string     `gorm:"column:company_id;type:uuid;not null"`
	Email       string     `gorm:"column:email;uniqueIndex;not null"`
	Nome        string     `gorm:"column:nome"`
	Cognome     string     `gorm:"column:cognome"`
	RoleID      *string    `gorm:"column:role_id;type:uuid"`
	Status      string     `gorm:"column:status;default:active"`
	CognitoSub  *string    `gorm:"column:cognito_sub"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Role) TableName() string {
	return "roles"
}

const (
	RoleCompanyOwner = "company-owner"
	RoleAdmin        = "admin"
	RoleMember       = "member"
)
