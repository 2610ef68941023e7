package members

import (
	"time"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Member is a marketplace account as shown on the members screen.
type Member struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      string
	Address   scope.Address
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactUpdate carries the fields a regional admin may change.
type ContactUpdate struct {
	Name    string
	Email   string
	Phone   string
	Address scope.Address
}
