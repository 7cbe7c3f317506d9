package catalog

import "strings"

// Unify projects either record shape into a UnifiedSpecies. It is pure:
// the result shares no slices with r.
func Unify(r Record) UnifiedSpecies {
	switch v := r.(type) {
	case Species:
		return unifyFlat(v)
	case *Species:
		return unifyFlat(*v)
	case SpeciesRecord:
		return unifySchema(v)
	case *SpeciesRecord:
		return unifySchema(*v)
	}
	// Unreachable: Record is sealed.
	return UnifiedSpecies{ID: r.RecordID(), Type: r.RecordCategory(), Status: StatusDD, Habitats: []string{}, SiteIDs: []string{}}
}

func unifyFlat(s Species) UnifiedSpecies {
	habitats := []string{}
	if h := strings.TrimSpace(s.Habitat); h != "" {
		habitats = append(habitats, h)
	}
	return UnifiedSpecies{
		ID:             s.ID,
		CommonName:     s.CommonName,
		ScientificName: s.ScientificName,
		Status:         normalizeStatus(s.Status),
		Type:           s.Category,
		Description:    s.Blurb,
		Habitats:       habitats,
		SiteIDs:        dedupeStrings(s.SiteIDs),
		Endemic:        cloneBool(s.Endemic),
	}
}

func unifySchema(s SpeciesRecord) UnifiedSpecies {
	var scientific string
	if s.Taxonomy != nil {
		scientific = s.Taxonomy.ScientificName
	}
	habitats := make([]string, 0, len(s.Distribution))
	siteIDs := make([]string, 0, len(s.Distribution))
	for _, o := range s.Distribution {
		habitats = append(habitats, o.HabitatType)
		siteIDs = append(siteIDs, o.SiteID)
	}
	return UnifiedSpecies{
		ID:             s.ID,
		CommonName:     s.CommonName,
		ScientificName: scientific,
		Status:         normalizeStatus(s.Status),
		Type:           s.Type,
		Description:    s.Description,
		Habitats:       dedupeStrings(habitats),
		SiteIDs:        dedupeStrings(siteIDs),
		Endemic:        cloneBool(s.Endemic),
	}
}

// AsSpecies converts any record into the flat shape the admin surface edits.
// A schema record keeps its first habitat type; threats and ecology have no
// flat counterpart and are dropped.
func AsSpecies(r Record) Species {
	switch v := r.(type) {
	case Species:
		return CloneSpecies(v)
	case *Species:
		return CloneSpecies(*v)
	case SpeciesRecord:
		return schemaAsSpecies(v)
	case *SpeciesRecord:
		return schemaAsSpecies(*v)
	}
	return Species{ID: r.RecordID(), Category: r.RecordCategory()}
}

func schemaAsSpecies(s SpeciesRecord) Species {
	u := unifySchema(s)
	out := Species{
		ID:             s.ID,
		Category:       s.Type,
		CommonName:     s.CommonName,
		ScientificName: u.ScientificName,
		Status:         s.Status,
		Blurb:          s.Description,
		Highlights:     cloneStrings(s.Highlights),
		Images:         cloneStrings(s.Images),
		SiteIDs:        u.SiteIDs,
		Endemic:        cloneBool(s.Endemic),
	}
	if len(u.Habitats) > 0 {
		out.Habitat = u.Habitats[0]
	}
	return out
}

// CloneSpecies returns a deep copy of s.
func CloneSpecies(s Species) Species {
	s.Highlights = cloneStrings(s.Highlights)
	s.Images = cloneStrings(s.Images)
	s.SiteIDs = cloneStrings(s.SiteIDs)
	s.Endemic = cloneBool(s.Endemic)
	return s
}

func cloneSite(s Site) Site {
	s.Features = cloneStrings(s.Features)
	s.HighlightSpecies = cloneStrings(s.HighlightSpecies)
	if s.AreaHectares != nil {
		v := *s.AreaHectares
		s.AreaHectares = &v
	}
	return s
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// dedupeStrings keeps the first occurrence of every non-empty value.
func dedupeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Bool returns a pointer to b, for building records with an explicit
// endemic flag.
func Bool(b bool) *bool {
	return &b
}
