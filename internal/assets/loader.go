package assets

// Asset is a branding image on disk.
type Asset struct {
	Name string // normalized key, e.g. "midwestlogo1"
	Path string // absolute path
	Ext  string // lowercase extension without dot
}

// Loader finds image assets by name.
// Implementations may index a directory, an object store, etc.
type Loader interface {
	// Find returns the preferred asset for name.
	// Returns ErrAssetNotFound if nothing matches and ErrUnsupportedFormat
	// if only a PDF matches.
	Find(name string) (Asset, error)
}
