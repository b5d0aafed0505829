package models

import (
	"docqa/tools"
	"time"
)

// User representa um usuario no sistema.
// Password always holds the bcrypt hash; handlers blank it before responding.
type User struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Email     string     `gorm:"not null;unique" json:"email" form:"email"`
	Password  string     `gorm:"not null" json:"password,omitempty" form:"password"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (user User) MissingFields() string {
	if user.Email == "" {
		return "email"
	} else if user.Password == "" {
		return "password"
	} else if tools.CheckPassword(user.Password, 0) != "" {
		return tools.CheckPassword(user.Password, 0)
	}
	return ""
}
