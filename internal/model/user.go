package model

// 用户角色
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"` // student | instructor | admin
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

func (User) TableName() string { return "users" }
