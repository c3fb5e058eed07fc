package linecard

import (
	"fmt"
	"strings"
)

// Region is a sales region and the states it covers.
type Region struct {
	Name   string
	States []string
}

// Directory maps regions to states. Every state belongs to one region.
type Directory struct {
	regions []Region
	byName  map[string]int
	byState map[string]int
}

// NewDirectory validates regions and builds the lookup tables. Names and
// states are matched case-insensitively; states are stored lowercase.
func NewDirectory(regions []Region) (*Directory, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: no regions", ErrInvalidDirectory)
	}
	d := &Directory{
		regions: make([]Region, 0, len(regions)),
		byName:  make(map[string]int, len(regions)),
		byState: make(map[string]int),
	}
	for _, r := range regions {
		name := strings.TrimSpace(r.Name)
		key := strings.ToLower(name)
		if key == "" {
			return nil, fmt.Errorf("%w: region with empty name", ErrInvalidDirectory)
		}
		if _, dup := d.byName[key]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidDirectory, name)
		}
		idx := len(d.regions)
		d.byName[key] = idx

		states := make([]string, 0, len(r.States))
		for _, s := range r.States {
			state := normalizeState(s)
			if state == "" {
				continue
			}
			if owner, dup := d.byState[state]; dup {
				if owner == idx {
					continue
				}
				return nil, fmt.Errorf("%w: state %q in %q and %q", ErrInvalidDirectory, state, d.regions[owner].Name, name)
			}
			d.byState[state] = idx
			states = append(states, state)
		}
		d.regions = append(d.regions, Region{Name: name, States: states})
	}
	return d, nil
}

// Regions returns a copy of the regions in configured order.
func (d *Directory) Regions() []Region {
	out := make([]Region, len(d.regions))
	for i, r := range d.regions {
		out[i] = Region{Name: r.Name, States: append([]string(nil), r.States...)}
	}
	return out
}

// Names returns region names in configured order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.regions))
	for i, r := range d.regions {
		out[i] = r.Name
	}
	return out
}

// Region looks up a region by name.
func (d *Directory) Region(name string) (Region, error) {
	idx, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrInvalidRegion, name)
	}
	return d.regions[idx], nil
}

// RegionForState returns the region containing state.
func (d *Directory) RegionForState(state string) (Region, error) {
	idx, ok := d.byState[normalizeState(state)]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	return d.regions[idx], nil
}

// Resolve turns user input into Criteria. With a state, the region is
// derived from it; a region given alongside must agree. Without a state,
// the region is required.
func (d *Directory) Resolve(region, state string) (Criteria, error) {
	if strings.TrimSpace(state) != "" {
		r, err := d.RegionForState(state)
		if err != nil {
			return Criteria{}, err
		}
		if strings.TrimSpace(region) != "" && !strings.EqualFold(strings.TrimSpace(region), r.Name) {
			return Criteria{}, fmt.Errorf("%w: %q is not in region %q", ErrInvalidState, state, region)
		}
		return Criteria{Region: r.Name, State: normalizeState(state)}, nil
	}
	r, err := d.Region(region)
	if err != nil {
		return Criteria{}, err
	}
	return Criteria{Region: r.Name}, nil
}

// normalizeState lowercases and collapses inner whitespace.
func normalizeState(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
