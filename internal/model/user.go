package model

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleBoth    UserRole = "both"
)

// User mirrors the identity provider's view of an account. The ID is
// opaque; authentication happens outside this service.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Role        UserRole  `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
