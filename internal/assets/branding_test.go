package assets

import (
	"errors"
	"path/filepath"
	"testing"
)

// stubLoader resolves names from a fixed table.
type stubLoader struct {
	assets map[string]Asset
	err    error
}

func (s stubLoader) Find(name string) (Asset, error) {
	if s.err != nil {
		return Asset{}, s.err
	}
	if a, ok := s.assets[NormalizeKey(name)]; ok {
		return a, nil
	}
	return Asset{}, ErrAssetNotFound
}

func TestBranding_ForRegion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "PacificNorthwestLogo_1.png", "PacificNorthwestLogo_2.jpg", "PacificNorthwestFooter.pdf")

	b, err := NewDirBranding(dir)
	if err != nil {
		t.Fatalf("NewDirBranding() error = %v", err)
	}

	got, err := b.ForRegion("pacific northwest")
	if err != nil {
		t.Fatalf("ForRegion() error = %v", err)
	}

	if img := got.Image(RoleFirstHeader); img == nil || filepath.Base(img.Path) != "PacificNorthwestLogo_1.png" {
		t.Errorf("first header = %+v", img)
	}
	if img := got.Image(RoleLaterHeader); img == nil || img.Ext != "jpg" {
		t.Errorf("later header = %+v", img)
	}
	if got.Image(RoleFooter) != nil {
		t.Error("footer resolved from a PDF, want missing")
	}
	if !errors.Is(got.Missing[RoleFooter], ErrUnsupportedFormat) {
		t.Errorf("Missing[footer] = %v, want ErrUnsupportedFormat", got.Missing[RoleFooter])
	}
}

func TestBranding_ForRegion_AllMissing(t *testing.T) {
	t.Parallel()

	b := NewBranding(stubLoader{})
	got, err := b.ForRegion("Midwest")
	if err != nil {
		t.Fatalf("ForRegion() error = %v", err)
	}
	if len(got.Images) != 0 || len(got.Missing) != len(Roles) {
		t.Errorf("Images=%d Missing=%d, want 0 and %d", len(got.Images), len(got.Missing), len(Roles))
	}
}

func TestBranding_ForRegion_ReadError(t *testing.T) {
	t.Parallel()

	b := NewBranding(stubLoader{err: ErrAssetRead})
	if _, err := b.ForRegion("Midwest"); !errors.Is(err, ErrAssetRead) {
		t.Errorf("ForRegion() error = %v, want ErrAssetRead", err)
	}
}

func TestBranding_Icon(t *testing.T) {
	t.Parallel()

	b := NewBranding(stubLoader{assets: map[string]Asset{
		"regionalicon": {Name: "regionalicon", Path: "/a/regionalIcon.jpg", Ext: "jpg"},
	}})
	icon, err := b.Icon("regionalIcon")
	if err != nil {
		t.Fatalf("Icon() error = %v", err)
	}
	if icon.Ext != "jpg" {
		t.Errorf("Icon().Ext = %q, want jpg", icon.Ext)
	}
}
