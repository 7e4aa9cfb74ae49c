package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lunaplata/joyeria-backend/pkg/db/models"
)

// SortKey selects the catalog ordering.
type SortKey string

const (
	SortNone      SortKey = ""
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

var validSortKeys = []SortKey{SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc}

func (k SortKey) IsValid() bool {
	if k == SortNone {
		return true
	}
	for _, candidate := range validSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSortKey converts a query value into a SortKey.
func ParseSortKey(value string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(value)))
	if !key.IsValid() {
		return SortNone, fmt.Errorf("invalid sort %q", value)
	}
	return key, nil
}

// Filters are the catalog browse knobs. Nil bounds and empty sets disable
// their predicate.
type Filters struct {
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Categories   []string
	Colors       []string
	Customizable *bool
	Search       string
	Sort         SortKey
}

// ApplyFilters keeps the products that pass every active predicate and orders
// them by f.Sort. The input slice is not modified and the sort is stable, so
// running the pipeline on its own output yields the same list.
func ApplyFilters(products []models.Product, f Filters) []models.Product {
	categories := normalizedSet(f.Categories)
	colors := normalizedSet(f.Colors)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if len(categories) > 0 && !intersects(p.Tags, categories) {
			continue
		}
		if len(colors) > 0 && !intersects(p.Colors, colors) {
			continue
		}
		if f.Customizable != nil && p.Customizable != *f.Customizable {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, f.Sort)
	return out
}

func sortProducts(products []models.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortNameAsc, SortNameDesc:
		// Collators keep internal buffers and are not safe to share.
		col := collate.New(language.Spanish, collate.IgnoreCase)
		desc := key == SortNameDesc
		sort.SliceStable(products, func(i, j int) bool {
			cmp := col.CompareString(products[i].Name, products[j].Name)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}

// normalizedSet keys values the same way the product_tags index does.
func normalizedSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = normalizeTag(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func intersects(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[normalizeTag(v)]; ok {
			return true
		}
	}
	return false
}
