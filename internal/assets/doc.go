// Package assets locates branding images for line cards and serves the
// embedded web form template.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── FilesystemLoader  - indexes image files in the branding directory
//	    └── EmbeddedLoader    - HTML templates compiled into the binary
//
//	Branding - resolves a region's header and footer images through a Loader
//
// # Naming
//
// Branding files are named "{Region}{Role}.{ext}", for example
// "NorthCentralLogo_1.png". Matching ignores case, whitespace, and
// punctuation, so "north central" finds "NorthCentralLogo_1.png" and
// "North-Central logo1.jpg" alike. When several extensions exist for one
// name the order of preference is png, jpg, jpeg, pdf. A PDF match is
// reported as ErrUnsupportedFormat: it cannot be drawn as an image.
//
// # Security
//
// FilesystemLoader resolves symlinks and skips files whose real path leaves
// the base directory.
package assets
