package model

// 用户角色
const (
	RoleStudent = "STUDENT"
	RoleStaff   = "STAFF"
	RoleAdmin   = "ADMIN"
)

// ValidRole 判断角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsPrivileged STAFF 与 ADMIN 可以管理他人的预约
func IsPrivileged(role string) bool {
	return role == RoleStaff || role == RoleAdmin
}

// User 用户表 — 对应 users
type User struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                             json:"-"`
	FirstName    string `gorm:"type:varchar(100);not null"                             json:"first_name"`
	LastName     string `gorm:"type:varchar(100);not null"                             json:"last_name"`
	Role         string `gorm:"type:varchar(20);not null"                              json:"role"`
	IsActive     bool   `gorm:"not null"                                               json:"is_active"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
