package registry

import (
	"fmt"

	"github.com/sthwalo/acc/internal/config"
	"github.com/sthwalo/acc/internal/model"
)

// ValidationError reports an account code outside every configured
// taxonomy range. Unknown ranges are rejected, never defaulted.
type ValidationError struct {
	Code   int
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("account code %d: %s", e.Code, e.Reason)
}

// Taxonomy resolves account codes to their category and normal side
// using the fixed code-range table supplied as configuration.
type Taxonomy struct {
	ranges []config.TaxonomyRange
}

// NewTaxonomy builds a Taxonomy from configured ranges.
func NewTaxonomy(ranges []config.TaxonomyRange) *Taxonomy {
	return &Taxonomy{ranges: ranges}
}

// Resolve returns the category and normal side for a code.
func (t *Taxonomy) Resolve(code int) (model.AccountCategory, model.NormalSide, error) {
	for _, r := range t.ranges {
		if code >= r.From && code <= r.To {
			return r.Category, r.Side, nil
		}
	}
	return "", "", ValidationError{Code: code, Reason: "outside every configured code range"}
}
