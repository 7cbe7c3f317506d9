package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

// ErrInvalid marks every problem Validate reports.
var ErrInvalid = errors.New("invalid dataset")

// Validate checks identity and enum fields across the whole dataset and
// returns every problem found, joined. Dangling site references are not
// problems here; the catalog tolerates them.
func Validate(ds catalog.Dataset) error {
	var errs []error
	problem := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	siteSeen := make(map[string]bool, len(ds.Sites))
	for i, s := range ds.Sites {
		ref := fmt.Sprintf("sites[%d]", i)
		if strings.TrimSpace(s.ID) == "" {
			problem("%s: missing id", ref)
		} else {
			ref = fmt.Sprintf("site %q", s.ID)
			if siteSeen[s.ID] {
				problem("%s: duplicate id", ref)
			}
			siteSeen[s.ID] = true
		}
		if s.Type != "" && !s.Type.Valid() {
			problem("%s: unknown site type %q", ref, s.Type)
		}
		if s.Lat < -90 || s.Lat > 90 {
			problem("%s: latitude %v out of range", ref, s.Lat)
		}
		if s.Lng < -180 || s.Lng > 180 {
			problem("%s: longitude %v out of range", ref, s.Lng)
		}
		if s.AreaHectares != nil && *s.AreaHectares < 0 {
			problem("%s: negative area", ref)
		}
	}

	speciesSeen := make(map[string]bool, len(ds.Flora)+len(ds.Fauna))
	check := func(store string, i int, r catalog.Record) {
		ref := fmt.Sprintf("%s[%d]", store, i)
		id := r.RecordID()
		if strings.TrimSpace(id) == "" {
			problem("%s: missing id", ref)
		} else {
			ref = fmt.Sprintf("species %q", id)
			if speciesSeen[id] {
				problem("%s: duplicate id", ref)
			}
			speciesSeen[id] = true
		}
		if c := r.RecordCategory(); !c.Valid() {
			problem("%s: unknown category %q", ref, c)
		}
		if st := recordStatus(r); st != "" && !st.Valid() {
			problem("%s: unknown status %q", ref, st)
		}
	}
	for i, r := range ds.Flora {
		check("flora", i, r)
	}
	for i, r := range ds.Fauna {
		check("fauna", i, r)
	}

	return errors.Join(errs...)
}

// Problems splits an error returned by Validate into its parts.
func Problems(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func recordStatus(r catalog.Record) catalog.Status {
	switch v := r.(type) {
	case catalog.Species:
		return v.Status
	case *catalog.Species:
		return v.Status
	case catalog.SpeciesRecord:
		return v.Status
	case *catalog.SpeciesRecord:
		return v.Status
	}
	return ""
}
