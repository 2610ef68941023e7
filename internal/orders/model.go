package orders

import (
	"time"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Order statuses follow the marketplace lifecycle.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Statuses lists the valid order statuses in lifecycle order.
var Statuses = []string{StatusPending, StatusAccepted, StatusCompleted, StatusCancelled}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a produce order placed by a buyer with a seller. Visibility is
// scoped through the buyer's address.
type Order struct {
	ID           int64
	BuyerID      int64
	BuyerName    string
	SellerID     int64
	SellerName   string
	FarmName     string
	Produce      string
	Quantity     string
	Status       string
	BuyerAddress scope.Address
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
