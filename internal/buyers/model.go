package buyers

import (
	"time"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Buyer is a produce-buyer profile.
type Buyer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Address   scope.Address
	Interests int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactUpdate carries the editable contact fields.
type ContactUpdate struct {
	Name    string
	Email   string
	Phone   string
	Address scope.Address
}
