// Package query implements the explorer's search pipeline: fuzzy text
// matching, categorical filters and the fixed severity ordering.
package query

import (
	"fmt"
	"strings"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

// All disables a categorical filter. The empty string does the same.
const All = "all"

// Options controls selection. Every field is optional.
type Options struct {
	Query       string
	Status      string
	Type        string
	Site        string
	EndemicOnly bool
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// Validate rejects status and type filters that can never match. Unknown
// site ids are not an error: they simply select nothing.
func (o Options) Validate() error {
	if !isAll(o.Status) {
		if _, ok := catalog.ParseStatus(o.Status); !ok {
			return fmt.Errorf("invalid status filter %q (want one of CR, EN, VU, NT, LC, DD or all)", o.Status)
		}
	}
	if !isAll(o.Type) && !catalog.Category(strings.ToLower(strings.TrimSpace(o.Type))).Valid() {
		return fmt.Errorf("invalid type filter %q (want flora, fauna or all)", o.Type)
	}
	return nil
}

// Normalized folds equivalent spellings together: "all" becomes "",
// statuses become their codes and the query is trimmed.
func (o Options) Normalized() Options {
	out := Options{
		Query:       strings.TrimSpace(o.Query),
		EndemicOnly: o.EndemicOnly,
	}
	if !isAll(o.Status) {
		if code, ok := catalog.ParseStatus(o.Status); ok {
			out.Status = string(code)
		} else {
			out.Status = strings.TrimSpace(o.Status)
		}
	}
	if !isAll(o.Type) {
		out.Type = strings.ToLower(strings.TrimSpace(o.Type))
	}
	if !isAll(o.Site) {
		out.Site = strings.TrimSpace(o.Site)
	}
	return out
}

// Key identifies an option set for caching.
func (o Options) Key() string {
	n := o.Normalized()
	return fmt.Sprintf("q=%s|status=%s|type=%s|site=%s|endemic=%t", strings.ToLower(n.Query), n.Status, n.Type, n.Site, n.EndemicOnly)
}
