package users

import (
	"strings"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
)

// Status is the filter the admin user list accepts.
type Status string

const (
	StatusAny      Status = ""
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBanned   Status = "banned"
)

// Action is a state change applied to a user from the admin console.
type Action string

const (
	ActionActivate    Action = "activate"
	ActionDeactivate  Action = "deactivate"
	ActionBan         Action = "ban"
	ActionUnban       Action = "unban"
	ActionVerifyEmail Action = "verify-email"
)

// Actions lists every supported action, in display order.
var Actions = []Action{ActionActivate, ActionDeactivate, ActionBan, ActionUnban, ActionVerifyEmail}

// ParseAction accepts an action name as it appears in a URL.
func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == strings.ToLower(strings.TrimSpace(s)) {
			return a, true
		}
	}
	return "", false
}

type User struct {
	ID               apiclient.ID   `json:"id"`                          // Backend identifier
	Email            string         `json:"email"`                       // Login email
	FullName         string         `json:"full_name,omitempty"`         // Display name
	IsActive         bool           `json:"is_active"`                   // Account enabled
	IsAdmin          bool           `json:"is_admin"`                    // May use the admin console
	IsVerified       bool           `json:"is_verified"`                 // Email address confirmed
	IsBanned         bool           `json:"is_banned"`                   // Banned by an admin
	BanReason        string         `json:"ban_reason,omitempty"`        // Reason given when banned
	SubscriptionTier string         `json:"subscription_tier,omitempty"` // free, pro, enterprise...
	CreatedAt        apiclient.Time `json:"created_at"`                  // Registration time
	LastLogin        apiclient.Time `json:"last_login"`                  // Most recent login
}

// DisplayName prefers the full name and falls back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Email
}

// Status derives the list filter bucket the user falls in.
func (u *User) Status() Status {
	switch {
	case u.IsBanned:
		return StatusBanned
	case !u.IsActive:
		return StatusInactive
	default:
		return StatusActive
	}
}

// Allows reports whether action would change anything for this user.
func (u *User) Allows(action Action) bool {
	switch action {
	case ActionActivate:
		return !u.IsActive
	case ActionDeactivate:
		return u.IsActive
	case ActionBan:
		return !u.IsBanned
	case ActionUnban:
		return u.IsBanned
	case ActionVerifyEmail:
		return !u.IsVerified
	}
	return false
}
