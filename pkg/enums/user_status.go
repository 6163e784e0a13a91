package enums

import "slices"

// UserStatus gates whether an account may sign in. Only Active may.
type UserStatus string

const (
	UserStatusActive    UserStatus = "Active"
	UserStatusInactive  UserStatus = "Inactive"
	UserStatusSuspended UserStatus = "Suspended"
)

var userStatuses = []UserStatus{UserStatusActive, UserStatusInactive, UserStatusSuspended}

func (s UserStatus) String() string { return string(s) }

func (s UserStatus) IsValid() bool { return slices.Contains(userStatuses, s) }

func ParseUserStatus(value string) (UserStatus, error) {
	return lookup("user status", userStatuses, value, false)
}
