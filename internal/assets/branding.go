package assets

import "errors"

// Role identifies a branding image for a region.
type Role string

// Branding roles.
const (
	RoleFirstHeader Role = "Logo_1" // page 1 header
	RoleLaterHeader Role = "Logo_2" // pages 2..n header
	RoleFooter      Role = "Footer" // footer graphic
)

// Roles lists every branding role in drawing order.
var Roles = []Role{RoleFirstHeader, RoleLaterHeader, RoleFooter}

// RegionBranding holds the resolved images for one region. A nil entry
// means the role is missing; Missing records why.
type RegionBranding struct {
	Region  string
	Images  map[Role]*Asset
	Missing map[Role]error
}

// Image returns the asset for role, or nil.
func (b RegionBranding) Image(role Role) *Asset {
	return b.Images[role]
}

// Branding resolves region header and footer images through a Loader.
type Branding struct {
	loader Loader
}

// NewBranding creates a Branding backed by loader.
func NewBranding(loader Loader) *Branding {
	return &Branding{loader: loader}
}

// NewDirBranding creates a Branding for a directory on disk.
func NewDirBranding(dir string) (*Branding, error) {
	fs, err := NewFilesystemLoader(dir)
	if err != nil {
		return nil, err
	}
	return NewBranding(fs), nil
}

// Resolve finds a single role's image for region.
func (b *Branding) Resolve(region string, role Role) (Asset, error) {
	return b.loader.Find(region + string(role))
}

// ForRegion resolves every role. Only an I/O failure on the directory is
// returned as an error; missing images are recorded in Missing.
func (b *Branding) ForRegion(region string) (RegionBranding, error) {
	out := RegionBranding{
		Region:  region,
		Images:  make(map[Role]*Asset, len(Roles)),
		Missing: make(map[Role]error),
	}
	for _, role := range Roles {
		asset, err := b.Resolve(region, role)
		switch {
		case err == nil:
			out.Images[role] = &asset
		case errors.Is(err, ErrAssetNotFound), errors.Is(err, ErrInvalidAssetName):
			out.Missing[role] = err
		default:
			return RegionBranding{}, err
		}
	}
	return out, nil
}

// Icon finds a named standalone image such as the footer's regional icon.
func (b *Branding) Icon(name string) (Asset, error) {
	return b.loader.Find(name)
}
