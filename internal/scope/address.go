package scope

import (
	"encoding/json"
	"strings"
)

// addressPayload covers the shapes seller/buyer rows historically stored:
// either flat fields or a JSON business-address blob with slightly varying
// key names.
type addressPayload struct {
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Zipcode string `json:"zipcode"`
}

// NewAddress builds a normalized Address from flat column values.
func NewAddress(country, state, city, zip string) Address {
	return Address{
		Country: strings.TrimSpace(country),
		State:   strings.TrimSpace(state),
		City:    strings.TrimSpace(city),
		Zip:     strings.TrimSpace(zip),
	}
}

// DecodeAddress parses a JSON-encoded business-address blob, falling back to
// the flat-column address when the blob is empty or malformed. Fields present
// in the blob win over the fallback.
func DecodeAddress(raw []byte, fallback Address) Address {
	if len(raw) == 0 {
		return fallback
	}
	var p addressPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fallback
	}
	addr := fallback
	if v := strings.TrimSpace(p.Country); v != "" {
		addr.Country = v
	}
	if v := strings.TrimSpace(p.State); v != "" {
		addr.State = v
	}
	if v := strings.TrimSpace(p.City); v != "" {
		addr.City = v
	}
	if v := strings.TrimSpace(p.Zipcode); v != "" {
		addr.Zip = v
	} else if v := strings.TrimSpace(p.Zip); v != "" {
		addr.Zip = v
	}
	return addr
}

// Display renders the address for list screens, skipping empty parts.
func (a Address) Display() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.City, a.State, a.Zip, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
