package catalog

import "strings"

// Status is an IUCN-style conservation status code.
type Status string

const (
	StatusCR Status = "CR"
	StatusEN Status = "EN"
	StatusVU Status = "VU"
	StatusNT Status = "NT"
	StatusLC Status = "LC"
	StatusDD Status = "DD"
)

// SeverityOrder lists the statuses most endangered first. DD sits last:
// unassessed records rank after Least Concern.
var SeverityOrder = []Status{StatusCR, StatusEN, StatusVU, StatusNT, StatusLC, StatusDD}

var statusLabels = map[Status]string{
	StatusCR: "Critically Endangered",
	StatusEN: "Endangered",
	StatusVU: "Vulnerable",
	StatusNT: "Near Threatened",
	StatusLC: "Least Concern",
	StatusDD: "Data Deficient",
}

// statusAliases groups the spellings found in authored data under a code.
var statusAliases = map[Status][]string{
	StatusCR: {"cr", "critically endangered", "critically_endangered", "critically-endangered"},
	StatusEN: {"en", "endangered"},
	StatusVU: {"vu", "vulnerable"},
	StatusNT: {"nt", "near threatened", "near_threatened", "near-threatened"},
	StatusLC: {"lc", "least concern", "least_concern", "least-concern"},
	StatusDD: {"dd", "data deficient", "data_deficient", "data-deficient", "unknown", "not evaluated", "ne"},
}

var statusByAlias map[string]Status

func init() {
	statusByAlias = make(map[string]Status)
	for code, aliases := range statusAliases {
		for _, a := range aliases {
			statusByAlias[a] = code
		}
	}
}

// ParseStatus maps a code or long name to its Status.
func ParseStatus(s string) (Status, bool) {
	code, ok := statusByAlias[strings.ToLower(strings.TrimSpace(s))]
	return code, ok
}

// Valid reports whether s is one of the six canonical codes.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Rank returns the severity position of s, 0 for CR. Unknown values rank
// with DD.
func (s Status) Rank() int {
	for i, code := range SeverityOrder {
		if code == s {
			return i
		}
	}
	return len(SeverityOrder) - 1
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[StatusDD]
}

// normalizeStatus never lets a missing or unreadable status turn into LC.
func normalizeStatus(s Status) Status {
	if s.Valid() {
		return s
	}
	if code, ok := ParseStatus(string(s)); ok {
		return code
	}
	return StatusDD
}
