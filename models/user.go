package models

import (
	"fmt"
	"strings"
)

// Role is the kind of actor operating the dashboard. It is fixed for the lifetime of a session.
type Role string

const (
	RoleAdmin           Role = "Admin"
	RoleCustomer        Role = "Customer"
	RoleServiceProvider Role = "Service Provider"
)

// Roles lists every known role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCustomer, RoleServiceProvider}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleServiceProvider:
		return true
	}
	return false
}

// ParseRole accepts the display name or a compact form ("admin", "customer", "sp", "service_provider").
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch key {
	case "admin":
		return RoleAdmin, nil
	case "customer":
		return RoleCustomer, nil
	case "service provider", "serviceprovider", "sp", "provider":
		return RoleServiceProvider, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is a known person in the seeded directory. Logging in turns a User into the session Actor.
type User struct {
	ID    string `db:"id" json:"id" yaml:"id"`
	Name  string `db:"name" json:"name" yaml:"name"`
	Role  Role   `db:"role" json:"role" yaml:"role"`
	Email string `db:"email" json:"email" yaml:"email"`
}

// Actor is the single active identity of a session.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Actor returns the session identity for u.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// IsAdmin, IsCustomer and IsServiceProvider are shorthands used by ownership rules.
func (a Actor) IsAdmin() bool           { return a.Role == RoleAdmin }
func (a Actor) IsCustomer() bool        { return a.Role == RoleCustomer }
func (a Actor) IsServiceProvider() bool { return a.Role == RoleServiceProvider }
