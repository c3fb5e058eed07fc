package linecard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecord_Name(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"string", rec("1", FieldName, " Acme "), "Acme"},
		{"list takes first", rec("1", FieldName, []any{"Acme", "Other"}), "Acme"},
		{"missing", rec("1"), UnknownManufacturer},
		{"blank", rec("1", FieldName, "   "), UnknownManufacturer},
		{"wrong type", rec("1", FieldName, 42.0), UnknownManufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rec.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_Parent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rec        Record
		want       string
		wantParent bool
	}{
		{"explicit", rec("1", FieldName, "Acme Sub", FieldParent, "Acme"), "Acme", false},
		{"missing means self", rec("1", FieldName, "Acme"), "Acme", true},
		{"blank means self", rec("1", FieldName, "Acme", FieldParent, ""), "Acme", true},
		{"list", rec("1", FieldName, "Sub", FieldParent, []any{"Acme"}), "Acme", false},
		{"self", rec("1", FieldName, "Acme", FieldParent, "Acme"), "Acme", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rec.Parent(); got != tt.want {
				t.Errorf("Parent() = %q, want %q", got, tt.want)
			}
			if got := tt.rec.IsParent(); got != tt.wantParent {
				t.Errorf("IsParent() = %v, want %v", got, tt.wantParent)
			}
		})
	}
}

func TestRecord_StatesAndRegions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rec         Record
		wantStates  []string
		wantRegions []string
	}{
		{
			name:        "comma string equals list",
			rec:         rec("1", FieldStates, "CA, NV", FieldRegion, "West, Rockies"),
			wantStates:  []string{"ca", "nv"},
			wantRegions: []string{"West", "Rockies"},
		},
		{
			name:        "list",
			rec:         rec("1", FieldStates, []any{"CA", " NV "}, FieldRegion, []any{"West"}),
			wantStates:  []string{"ca", "nv"},
			wantRegions: []string{"West"},
		},
		{
			name:        "empty entries dropped",
			rec:         rec("1", FieldStates, "CA,, ,NV,"),
			wantStates:  []string{"ca", "nv"},
			wantRegions: []string{},
		},
		{
			name:        "missing",
			rec:         rec("1"),
			wantStates:  []string{},
			wantRegions: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.wantStates, tt.rec.States()); diff != "" {
				t.Errorf("States() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRegions, tt.rec.Regions()); diff != "" {
				t.Errorf("Regions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecord_Logo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rec    Record
		want   LogoRef
		wantOK bool
	}{
		{
			name: "first attachment with url",
			rec: rec("1", FieldLogos, []any{
				map[string]any{"url": ""},
				map[string]any{
					"url": "https://cdn.example/a.png", "filename": "a.png",
					"type": "image/png", "width": 320.0, "height": 100.0,
				},
				map[string]any{"url": "https://cdn.example/b.png"},
			}),
			want:   LogoRef{URL: "https://cdn.example/a.png", Filename: "a.png", Type: "image/png", Width: 320, Height: 100},
			wantOK: true,
		},
		{
			name:   "bare string",
			rec:    rec("1", FieldLogos, "https://cdn.example/a.svg"),
			want:   LogoRef{URL: "https://cdn.example/a.svg"},
			wantOK: true,
		},
		{
			name:   "empty list",
			rec:    rec("1", FieldLogos, []any{}),
			wantOK: false,
		},
		{
			name:   "missing",
			rec:    rec("1"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.rec.Logo()
			if ok != tt.wantOK {
				t.Fatalf("Logo() ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Logo() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecord_Description(t *testing.T) {
	t.Parallel()

	if got := rec("1", FieldDescription, "  Pumps.  ").Description(); got != "Pumps." {
		t.Errorf("Description() = %q, want %q", got, "Pumps.")
	}
	if got := rec("1").Description(); got != "" {
		t.Errorf("Description() = %q, want empty", got)
	}
}

func TestGrouped_Helpers(t *testing.T) {
	t.Parallel()

	parent := rec("p", FieldName, "Acme")
	g := Grouped{
		{Key: "Acme", Parent: &parent, Children: []Record{rec("c1"), rec("c2")}},
		{Key: "Orphans", Children: []Record{rec("c3")}},
	}

	if got := g.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if got := g.Records(); got != 4 {
		t.Errorf("Records() = %d, want 4", got)
	}
	if diff := cmp.Diff([]string{"Acme", "Orphans"}, g.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := g.Lookup("acme"); ok {
		t.Error("Lookup should be exact")
	}
	if c, ok := g.Lookup("Orphans"); !ok || c.Parent != nil {
		t.Errorf("Lookup(Orphans) = %+v, %v", c, ok)
	}
}
