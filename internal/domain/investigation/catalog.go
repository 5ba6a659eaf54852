package investigation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrListingNotFound = errors.New("no matching listing in catalog")
	ErrInvalidPrice    = errors.New("listing has no valid price")
)

// Catalog is the set of listings loaded from the server, in server order.
type Catalog []Listing

// FindListingByTestName matches name case-insensitively against each
// listing's name or code. The first match in catalog order wins; duplicate
// names are not disambiguated.
func (c Catalog) FindListingByTestName(name string) (*Listing, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	for i := range c {
		if strings.ToLower(c[i].Name) == needle || strings.ToLower(c[i].Code) == needle {
			return &c[i], true
		}
	}
	return nil, false
}

// Names lists the listing names, for pickers and completion.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, l := range c {
		names = append(names, l.Name)
	}
	return names
}

// ResolveListingForInvestigation re-prices a line item against the current
// catalog. The test type is matched first, then the code of the listing
// recorded on the line.
func ResolveListingForInvestigation(inv Investigation, listings Catalog) (ListingRef, error) {
	l, ok := listings.FindListingByTestName(inv.TestType)
	if !ok && inv.Listing != nil {
		l, ok = listings.FindListingByTestName(inv.Listing.Code)
	}
	if !ok {
		return ListingRef{}, fmt.Errorf("%w: %q", ErrListingNotFound, inv.TestType)
	}
	if !l.Price.Positive() {
		return ListingRef{}, fmt.Errorf("%w: %q has price %v", ErrInvalidPrice, l.Name, l.Price.Float())
	}
	return l.Ref(), nil
}
