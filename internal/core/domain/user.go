package domain

import (
	"slices"
	"time"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// ValidRole reports whether role is one an admin may assign.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User models a registered identity. Email is the identity key.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name,omitempty"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	Role            string    `json:"role,omitempty"`
	SelectedClasses []string  `json:"selected_classes"`
	EnrolledClasses []string  `json:"enrolled_classes"`
	CreatedAt       time.Time `json:"created_at"`
}

// EffectiveRole returns the stored role, or student when it was never set.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleStudent
	}
	return u.Role
}

// HasSelected reports whether classID is in the user's selection.
func (u *User) HasSelected(classID string) bool {
	return slices.Contains(u.SelectedClasses, classID)
}

// HasEnrolled reports whether the user already holds a seat in classID.
func (u *User) HasEnrolled(classID string) bool {
	return slices.Contains(u.EnrolledClasses, classID)
}
