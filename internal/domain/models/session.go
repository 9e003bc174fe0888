package models

import (
	"fmt"
	"strings"
)

// Role enumerates the supply-chain participants that can hold a session.
type Role string

const (
	RoleFarmer      Role = "farmer"
	RoleDistributor Role = "distributor"
	RoleRetailer    Role = "retailer"
	RoleConsumer    Role = "consumer"
	RoleAdmin       Role = "admin"
)

// Roles lists every supported role in registration order.
var Roles = []Role{RoleFarmer, RoleDistributor, RoleRetailer, RoleConsumer, RoleAdmin}

// ParseRole derives a Role from free-form input, ignoring case and surrounding spaces.
func ParseRole(value string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, role := range Roles {
		if role == normalized {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", value)
}

// CanManageProducts reports whether the role may add and delete product records.
// Consumers only browse.
func (r Role) CanManageProducts() bool {
	switch r {
	case RoleFarmer, RoleDistributor, RoleRetailer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Session represents the active viewer.
type Session struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}

// Anonymous reports whether the session was synthesized without a signed-in identity.
func (s Session) Anonymous() bool {
	return s.Identity == ""
}

// RegisterRequest captures the registration form.
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role" binding:"required"`
}

// LoginRequest captures the login form.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
