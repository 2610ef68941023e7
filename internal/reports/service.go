package reports

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/scope"
)

// Service assembles the reports screen and the CSV exports. The underlying
// aggregate queries are marketplace-wide; results are narrowed to the
// caller's scope before leaving the service.
type Service struct {
	repo  Repository
	group singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// aggregate is the raw marketplace-wide query result shared by concurrent
// callers. Region-keyed so per-caller views can be carved out of it.
type aggregate struct {
	totals      Totals
	regions     []RegionCount
	statuses    []StatusCount
	generatedAt time.Time
}

// Summary computes the reports payload. Concurrent callers share one round
// of aggregate queries via singleflight; the narrowing per caller happens
// outside the shared flight.
func (s *Service) Summary(ctx context.Context, ident identity.Identity) (Summary, error) {
	v, err, _ := s.group.Do("summary", func() (any, error) {
		totals, err := s.repo.Totals(ctx)
		if err != nil {
			return nil, err
		}
		regions, err := s.repo.RegionCounts(ctx)
		if err != nil {
			return nil, err
		}
		statuses, err := s.repo.OrderStatusCounts(ctx)
		if err != nil {
			return nil, err
		}
		return aggregate{
			totals:      totals,
			regions:     regions,
			statuses:    statuses,
			generatedAt: time.Now().UTC(),
		}, nil
	})
	if err != nil {
		return Summary{}, err
	}
	agg := v.(aggregate)
	if policy.CapabilitiesFor(ident.Role).Has(policy.CapViewAllRegions) {
		out := Summary{
			Totals:       agg.totals,
			StatusCounts: map[string]int{},
			Regions:      agg.regions,
			GeneratedAt:  agg.generatedAt,
		}
		for _, sc := range agg.statuses {
			out.StatusCounts[sc.Status] += sc.Count
		}
		return out, nil
	}
	return narrow(agg, ident.Scope()), nil
}

// narrow restricts a marketplace-wide aggregate to the rows inside sc. Every
// number on the screen is recomputed from surviving rows, status counts and
// the order total included, so a scoped admin never sees global counts and a
// caller with no regions sees nothing.
func narrow(agg aggregate, sc scope.Scope) Summary {
	out := Summary{
		StatusCounts: map[string]int{},
		GeneratedAt:  agg.generatedAt,
	}
	for _, rc := range agg.regions {
		if !scope.Matches(scope.Address{Country: rc.Country, State: rc.Region}, sc) {
			continue
		}
		out.Regions = append(out.Regions, rc)
		out.Totals.Members += rc.Members
		out.Totals.Buyers += rc.Buyers
		out.Totals.Sellers += rc.Sellers
	}
	for _, st := range agg.statuses {
		if !scope.Matches(scope.Address{Country: st.Country, State: st.Region}, sc) {
			continue
		}
		out.StatusCounts[st.Status] += st.Count
		out.Totals.Orders += st.Count
	}
	return out
}

// ExportMembers writes the members visible to the caller as CSV.
func (s *Service) ExportMembers(ctx context.Context, ident identity.Identity, w io.Writer) error {
	rows, err := s.repo.MembersForExport(ctx)
	if err != nil {
		return err
	}
	visible := policy.FilterVisible(ident, rows, func(m ExportMember) scope.Address { return m.Address })

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "email", "role", "country", "state", "city", "zipcode"}); err != nil {
		return err
	}
	for _, m := range visible {
		if err := cw.Write([]string{m.ID, m.Name, m.Email, m.Role,
			m.Address.Country, m.Address.State, m.Address.City, m.Address.Zip}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportOrders writes the orders visible to the caller as CSV.
func (s *Service) ExportOrders(ctx context.Context, ident identity.Identity, w io.Writer) error {
	rows, err := s.repo.OrdersForExport(ctx)
	if err != nil {
		return err
	}
	visible := policy.FilterVisible(ident, rows, func(o ExportOrder) scope.Address { return o.BuyerAddress })

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "buyer", "seller", "produce", "status", "country", "state", "created_at"}); err != nil {
		return err
	}
	for _, o := range visible {
		if err := cw.Write([]string{strconv.FormatInt(o.ID, 10), o.BuyerName, o.SellerName,
			o.Produce, o.Status, o.BuyerAddress.Country, o.BuyerAddress.State,
			o.CreatedAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
