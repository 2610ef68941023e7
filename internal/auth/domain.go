package auth

import (
	"time"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// User represents a marketplace account row. Dashboard operators are regular
// accounts whose role grants panel access; Regions carries the location
// assignments of regional admins.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Regions      []scope.Region
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
