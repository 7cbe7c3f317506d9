package storage

import (
	"strings"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

// likePattern turns free text into a case-insensitive substring pattern for
// LIKE ... ESCAPE '\'.
func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// normalizeStatusFilter accepts codes and long names; "" and "all" select
// everything.
func normalizeStatusFilter(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", true
	}
	code, ok := catalog.ParseStatus(s)
	return string(code), ok
}

func normalizeCategoryFilter(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return "", true
	}
	return s, catalog.Category(s).Valid()
}
