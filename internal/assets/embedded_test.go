package assets

import (
	"errors"
	"html/template"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadTemplate(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name        string
		template    string
		wantErr     error
		wantContain string
	}{
		{name: "loads form", template: "form", wantContain: "/generate-pdf/"},
		{name: "nonexistent", template: "nonexistent-xyz", wantErr: ErrTemplateNotFound},
		{name: "empty name", template: "", wantErr: ErrInvalidAssetName},
		{name: "path traversal", template: "../form", wantErr: ErrInvalidAssetName},
		{name: "backslash traversal", template: "..\\form", wantErr: ErrInvalidAssetName},
		{name: "name with dot", template: "form.html", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadTemplate(tt.template)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LoadTemplate(%q) error = %v, want %v", tt.template, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadTemplate(%q) error = %v", tt.template, err)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("LoadTemplate(%q) missing %q", tt.template, tt.wantContain)
			}
		})
	}
}

func TestEmbeddedLoader_FormTemplateParses(t *testing.T) {
	t.Parallel()

	src, err := NewEmbeddedLoader().LoadTemplate("form")
	if err != nil {
		t.Fatalf("LoadTemplate(form) error = %v", err)
	}
	tmpl, err := template.New("form").Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	type region struct {
		Name   string
		States []string
	}
	var b strings.Builder
	data := struct {
		Title   string
		Regions []region
	}{
		Title:   "Line Cards",
		Regions: []region{{Name: "Rockies", States: []string{"colorado", "utah"}}},
	}
	if err := tmpl.Execute(&b, data); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Rockies", "colorado", "utah"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("rendered form missing %q", want)
		}
	}
}
