package reports

import (
	"time"

	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Totals are marketplace-wide headline counts.
type Totals struct {
	Members int
	Buyers  int
	Sellers int
	Orders  int
}

// RegionCount aggregates profile counts for one country/state pair.
type RegionCount struct {
	Country string
	Region  string
	Members int
	Buyers  int
	Sellers int
}

// StatusCount aggregates orders for one status within one buyer region.
type StatusCount struct {
	Country string
	Region  string
	Status  string
	Count   int
}

// Summary is the payload behind the reports screen.
type Summary struct {
	Totals       Totals
	StatusCounts map[string]int
	Regions      []RegionCount
	GeneratedAt  time.Time
}

// ExportMember is one row of the members CSV export.
type ExportMember struct {
	ID      string
	Name    string
	Email   string
	Role    string
	Address scope.Address
}

// ExportOrder is one row of the orders CSV export.
type ExportOrder struct {
	ID           int64
	BuyerName    string
	SellerName   string
	Produce      string
	Status       string
	BuyerAddress scope.Address
	CreatedAt    time.Time
}
