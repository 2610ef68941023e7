package policy

import (
	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/scope"
)

// FilterVisible narrows a result set to the rows the caller may see. Holders
// of CapViewAllRegions see everything; everyone else is filtered through the
// caller's region scope, which matches nothing when empty.
func FilterVisible[T any](ident identity.Identity, rows []T, addr func(T) scope.Address) []T {
	if CapabilitiesFor(ident.Role).Has(CapViewAllRegions) {
		return rows
	}
	sc := ident.Scope()
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if scope.Matches(addr(row), sc) {
			out = append(out, row)
		}
	}
	return out
}
