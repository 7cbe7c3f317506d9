// Package dataset reads sites and species from the embedded default data, a
// local JSON or YAML file, or a remote URL, and validates them before they
// reach the catalog.
package dataset

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/whttp"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.json
var embedded embed.FS

// DefaultSource names the embedded dataset in logs and the change log.
const DefaultSource = "embedded"

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor guesses the document format from a file name or URL path.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Loader fetches datasets. The zero value uses a default retrying client.
type Loader struct {
	Client *retryablehttp.Client
}

var defaultLoader = &Loader{}

// Load reads source with the default loader.
func Load(ctx context.Context, source string) (catalog.Dataset, error) {
	return defaultLoader.Load(ctx, source)
}

// Load reads and validates a dataset. An empty source selects the embedded
// data; http(s) URLs are fetched; anything else is a file path.
func (l *Loader) Load(ctx context.Context, source string) (catalog.Dataset, error) {
	ds, err := l.read(ctx, source)
	if err != nil {
		return catalog.Dataset{}, err
	}
	if err := Validate(ds); err != nil {
		return catalog.Dataset{}, err
	}
	utils.Log.WithFields(map[string]interface{}{
		"source": SourceName(source),
		"sites":  len(ds.Sites),
		"flora":  len(ds.Flora),
		"fauna":  len(ds.Fauna),
	}).Debug("Dataset loaded")
	return ds, nil
}

// LoadUnchecked reads source without validating it, for callers that report
// problems themselves.
func (l *Loader) LoadUnchecked(ctx context.Context, source string) (catalog.Dataset, error) {
	return l.read(ctx, source)
}

func (l *Loader) read(ctx context.Context, source string) (catalog.Dataset, error) {
	switch {
	case source == "" || source == DefaultSource:
		return Default()
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return l.fetch(ctx, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("reading dataset: %w", err)
	}
	ds, err := Parse(data, FormatFor(source))
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("%s: %w", source, err)
	}
	return ds, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (catalog.Dataset, error) {
	client := l.Client
	if client == nil {
		client = whttp.NewClient(3, 30*time.Second)
	}
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{URL: url, Method: http.MethodGet}, client)
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("fetching dataset: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return catalog.Dataset{}, fmt.Errorf("fetching dataset: %s returned status %d", url, res.StatusCode)
	}

	format := FormatFor(path.Base(strings.SplitN(url, "?", 2)[0]))
	if strings.Contains(res.ContentType, "yaml") {
		format = FormatYAML
	}
	ds, err := Parse(res.Body, format)
	if err != nil {
		return catalog.Dataset{}, fmt.Errorf("%s: %w", url, err)
	}
	return ds, nil
}

// Default returns the dataset compiled into the binary.
func Default() (catalog.Dataset, error) {
	var out catalog.Dataset
	for _, name := range []string{"data/sites.json", "data/species.json"} {
		data, err := embedded.ReadFile(name)
		if err != nil {
			return catalog.Dataset{}, err
		}
		ds, err := Parse(data, FormatJSON)
		if err != nil {
			return catalog.Dataset{}, fmt.Errorf("embedded %s: %w", name, err)
		}
		out.Sites = append(out.Sites, ds.Sites...)
		out.Flora = append(out.Flora, ds.Flora...)
		out.Fauna = append(out.Fauna, ds.Fauna...)
	}
	return out, nil
}

// SourceName is the label recorded for source.
func SourceName(source string) string {
	if source == "" {
		return DefaultSource
	}
	return source
}

// Parse decodes one document. It accepts {"sites", "flora", "fauna"} or
// {"sites", "species"} where each species names its own category. Any key
// may be absent.
func Parse(data []byte, format Format) (catalog.Dataset, error) {
	if format == FormatYAML {
		var err error
		if data, err = yamlToJSON(data); err != nil {
			return catalog.Dataset{}, err
		}
	}
	if !gjson.ValidBytes(data) {
		return catalog.Dataset{}, errors.New("invalid JSON document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return catalog.Dataset{}, errors.New("dataset document must be an object")
	}

	var ds catalog.Dataset
	for i, raw := range root.Get("sites").Array() {
		var site catalog.Site
		if err := json.Unmarshal([]byte(raw.Raw), &site); err != nil {
			return catalog.Dataset{}, fmt.Errorf("sites[%d]: %w", i, err)
		}
		site.Summary = PlainText(site.Summary)
		site.Description = PlainText(site.Description)
		ds.Sites = append(ds.Sites, site)
	}

	add := func(key string, fallback catalog.Category) error {
		for i, raw := range root.Get(key).Array() {
			rec, err := decodeRecord(raw, fallback)
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			if rec.RecordCategory() == catalog.CategoryFauna {
				ds.Fauna = append(ds.Fauna, rec)
			} else {
				ds.Flora = append(ds.Flora, rec)
			}
		}
		return nil
	}
	if err := add("flora", catalog.CategoryFlora); err != nil {
		return catalog.Dataset{}, err
	}
	if err := add("fauna", catalog.CategoryFauna); err != nil {
		return catalog.Dataset{}, err
	}
	if err := add("species", ""); err != nil {
		return catalog.Dataset{}, err
	}
	return ds, nil
}

// decodeRecord picks the record shape from the fields present: a taxonomy
// block or a distribution list marks the schema shape.
func decodeRecord(raw gjson.Result, fallback catalog.Category) (catalog.Record, error) {
	if !raw.IsObject() {
		return nil, errors.New("species entry must be an object")
	}
	category := catalog.Category(strings.ToLower(raw.Get("category").String()))
	if category == "" {
		category = catalog.Category(strings.ToLower(raw.Get("type").String()))
	}
	if category == "" {
		category = fallback
	}

	if raw.Get("taxonomy").Exists() || raw.Get("distribution").Exists() {
		var rec catalog.SpeciesRecord
		if err := json.Unmarshal([]byte(raw.Raw), &rec); err != nil {
			return nil, err
		}
		rec.Type = category
		rec.Status = canonicalStatus(rec.Status)
		rec.Description = PlainText(rec.Description)
		return rec, nil
	}

	var rec catalog.Species
	if err := json.Unmarshal([]byte(raw.Raw), &rec); err != nil {
		return nil, err
	}
	rec.Category = category
	rec.Status = canonicalStatus(rec.Status)
	rec.Blurb = PlainText(rec.Blurb)
	return rec, nil
}

// canonicalStatus maps known spellings to their code and leaves anything
// else untouched for Validate to report.
func canonicalStatus(s catalog.Status) catalog.Status {
	if code, ok := catalog.ParseStatus(string(s)); ok {
		return code
	}
	return s
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML document: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting YAML document: %w", err)
	}
	return out, nil
}
