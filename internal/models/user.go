package models

import (
	"github.com/uptrace/bun"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string `bun:"id,pk" json:"id"`
	Username     string `bun:"username,unique" json:"username"`
	Name         string `bun:"name" json:"name,omitempty"`
	Role         string `bun:"role" json:"role"`
	PasswordHash string `bun:"password_hash" json:"-"`
}
