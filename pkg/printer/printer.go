// Package printer renders species as delimited lines whose columns are picked
// by a string of output flags.
package printer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

// DefaultFlags prints id, common name and status.
const DefaultFlags = "ict"

var ErrInvalidFlag = errors.New("invalid print flag")

// columns maps each output flag to the field it prints.
var columns = map[rune]func(u catalog.UnifiedSpecies) string{
	'i': func(u catalog.UnifiedSpecies) string { return u.ID },
	'c': func(u catalog.UnifiedSpecies) string { return u.CommonName },
	's': func(u catalog.UnifiedSpecies) string { return u.ScientificName },
	't': func(u catalog.UnifiedSpecies) string { return string(u.Status) },
	'y': func(u catalog.UnifiedSpecies) string { return string(u.Type) },
	'h': func(u catalog.UnifiedSpecies) string { return strings.Join(u.Habitats, ",") },
	'u': func(u catalog.UnifiedSpecies) string { return strings.Join(u.SiteIDs, ",") },
	'e': func(u catalog.UnifiedSpecies) string {
		if u.IsEndemic() {
			return "endemic"
		}
		return ""
	},
	'l': func(u catalog.UnifiedSpecies) string { return u.Status.Label() },
}

// ValidateFlags reports the first unknown flag in outputFlags.
func ValidateFlags(outputFlags string) error {
	if outputFlags == "" {
		return fmt.Errorf("%w: empty output flags", ErrInvalidFlag)
	}
	for _, f := range outputFlags {
		if _, ok := columns[f]; !ok {
			return fmt.Errorf("%w %q", ErrInvalidFlag, f)
		}
	}
	return nil
}

// PrintSpecies writes one line per species.
func PrintSpecies(w io.Writer, species []catalog.UnifiedSpecies, outputFlags, delimiter string) error {
	if err := ValidateFlags(outputFlags); err != nil {
		return err
	}
	for _, u := range species {
		if line := createLine(u, outputFlags, delimiter); len(line) > 0 {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func createLine(u catalog.UnifiedSpecies, outputFlags, delimiter string) string {
	fields := make([]string, 0, len(outputFlags))
	for _, f := range outputFlags {
		fields = append(fields, columns[f](u))
	}
	return strings.Join(fields, delimiter)
}
