package sellers

import (
	"time"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Seller is a farmer/seller profile. Featured sellers surface on the
// marketplace landing page until FeaturedUntil passes.
type Seller struct {
	ID            int64
	Name          string
	FarmName      string
	Email         string
	Phone         string
	Address       scope.Address
	Featured      bool
	FeaturedUntil *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ContactUpdate carries the editable contact fields.
type ContactUpdate struct {
	Name     string
	FarmName string
	Email    string
	Phone    string
	Address  scope.Address
}
