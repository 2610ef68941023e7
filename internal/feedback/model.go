package feedback

import (
	"time"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Feedback is a buyer's review of a seller. Visibility is scoped through
// the buyer's address.
type Feedback struct {
	ID           int64
	BuyerID      int64
	BuyerName    string
	SellerID     int64
	SellerName   string
	FarmName     string
	Rating       int
	Comment      string
	BuyerAddress scope.Address
	CreatedAt    time.Time
}
