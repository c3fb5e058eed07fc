package linecard

import (
	"strings"
	"time"
)

// Catalog field names.
const (
	FieldName        = "Manufacturer Names"
	FieldParent      = "Parent"
	FieldRegion      = "Region"
	FieldStates      = "Manufacturer States"
	FieldLogos       = "Logos"
	FieldDescription = "Description"
)

// Placeholder text.
const (
	UnknownManufacturer = "Unknown Manufacturer"
	NoDescription       = "No description available."
	NoLogo              = "No Logo"
)

// Record is one catalog row. Fields holds values as decoded from JSON:
// strings, float64, bool, []any, map[string]any.
type Record struct {
	ID          string
	CreatedTime string
	Fields      map[string]any
}

// Name returns the manufacturer name, or UnknownManufacturer when blank.
func (r Record) Name() string {
	if s := firstString(r.Fields[FieldName]); s != "" {
		return s
	}
	return UnknownManufacturer
}

// Parent returns the parent manufacturer. A blank parent means the record
// is its own parent.
func (r Record) Parent() string {
	if s := firstString(r.Fields[FieldParent]); s != "" {
		return s
	}
	return r.Name()
}

// IsParent reports whether the record fills its cluster's parent slot.
func (r Record) IsParent() bool {
	return r.Name() == r.Parent()
}

// Regions returns the sales regions the record is listed in.
func (r Record) Regions() []string {
	return stringList(r.Fields[FieldRegion])
}

// States returns the lowercased states the record is sold in.
func (r Record) States() []string {
	raw := stringList(r.Fields[FieldStates])
	out := raw[:0]
	for _, s := range raw {
		out = append(out, strings.ToLower(s))
	}
	return out
}

// Description returns the trimmed description, or "" when absent.
func (r Record) Description() string {
	s, _ := r.Fields[FieldDescription].(string)
	return strings.TrimSpace(s)
}

// LogoRef points at a logo attachment.
type LogoRef struct {
	URL      string
	Filename string
	Type     string // MIME type as reported by the source, may be empty
	Width    int
	Height   int
}

// Logo returns the first attachment with a URL. A plain string value is
// taken as the URL itself.
func (r Record) Logo() (LogoRef, bool) {
	switch v := r.Fields[FieldLogos].(type) {
	case string:
		if u := strings.TrimSpace(v); u != "" {
			return LogoRef{URL: u}, true
		}
	case []any:
		for _, item := range v {
			switch att := item.(type) {
			case map[string]any:
				u, _ := att["url"].(string)
				if u = strings.TrimSpace(u); u == "" {
					continue
				}
				ref := LogoRef{URL: u}
				ref.Filename, _ = att["filename"].(string)
				ref.Type, _ = att["type"].(string)
				ref.Width = intValue(att["width"])
				ref.Height = intValue(att["height"])
				return ref, true
			case string:
				if u := strings.TrimSpace(att); u != "" {
					return LogoRef{URL: u}, true
				}
			}
		}
	}
	return LogoRef{}, false
}

// Criteria selects records for one document.
type Criteria struct {
	Region string // required, compared case-insensitively
	State  string // optional
}

// Cluster is a parent manufacturer and its sub-brands. Parent is nil when
// no record names itself as the parent.
type Cluster struct {
	Key      string
	Parent   *Record
	Children []Record
}

// Grouped is the ordered set of clusters for one document.
type Grouped []Cluster

// Len returns the number of clusters.
func (g Grouped) Len() int { return len(g) }

// Records returns the total number of records across clusters.
func (g Grouped) Records() int {
	n := 0
	for _, c := range g {
		n += len(c.Children)
		if c.Parent != nil {
			n++
		}
	}
	return n
}

// Lookup finds a cluster by exact key.
func (g Grouped) Lookup(key string) (Cluster, bool) {
	for _, c := range g {
		if c.Key == key {
			return c, true
		}
	}
	return Cluster{}, false
}

// Keys returns cluster keys in order.
func (g Grouped) Keys() []string {
	keys := make([]string, len(g))
	for i, c := range g {
		keys[i] = c.Key
	}
	return keys
}

// RenderInput describes one document to render.
type RenderInput struct {
	Region     string
	State      string // optional; adds the page 1 state label
	OutputPath string
}

// RenderStats reports what the renderer drew.
type RenderStats struct {
	Pages        int
	Blocks       int
	LogoFailures int
	MissingAsset []string // roles that fell back
}

// Request asks the Generator for one document.
type Request struct {
	Region string
	State  string
	// OutputPath overrides the generated name inside the output directory.
	OutputPath string
}

// Result describes a generated document.
type Result struct {
	Path      string
	Filename  string
	Name      string // region, or title-cased state
	Region    string
	State     string
	Clusters  int
	Records   int
	Stats     RenderStats
	Generated time.Time
	Duration  time.Duration
}

// firstString returns a trimmed string, or the first string of a list.
func firstString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []string:
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// stringList accepts a list of strings or a comma-separated string and
// returns trimmed, non-empty entries.
func stringList(v any) []string {
	var raw []string
	switch val := v.(type) {
	case string:
		raw = strings.Split(val, ",")
	case []string:
		raw = val
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
