package linecard

import (
	"strings"

	"github.com/alnah/go-linecard/internal/assets"
)

// MaxFooterColumns is the number of address columns a footer block holds.
const MaxFooterColumns = 2

// FooterBlock is the text footer drawn when a region has no footer image:
// address columns, an optional regional icon, and the website.
type FooterBlock struct {
	Columns []string // each column may contain "\n"
	Icon    bool
}

// FooterDirectory maps regions to footer blocks. Unknown regions get the
// fallback block.
type FooterDirectory struct {
	website  string
	iconName string
	blocks   map[string]FooterBlock
	fallback FooterBlock
}

// NewFooterDirectory builds a directory keyed by normalized region name.
// Blocks with more than MaxFooterColumns columns are truncated.
func NewFooterDirectory(website, iconName string, blocks map[string]FooterBlock, fallback FooterBlock) *FooterDirectory {
	d := &FooterDirectory{
		website:  strings.TrimSpace(website),
		iconName: strings.TrimSpace(iconName),
		blocks:   make(map[string]FooterBlock, len(blocks)),
		fallback: trimColumns(fallback),
	}
	for region, b := range blocks {
		d.blocks[assets.NormalizeKey(region)] = trimColumns(b)
	}
	return d
}

// Lookup returns the block for region and whether it was configured.
func (d *FooterDirectory) Lookup(region string) (FooterBlock, bool) {
	b, ok := d.blocks[assets.NormalizeKey(region)]
	return b, ok
}

// For returns the block for region, or the fallback block.
func (d *FooterDirectory) For(region string) FooterBlock {
	if b, ok := d.Lookup(region); ok {
		return b
	}
	return d.fallback
}

// Website returns the website printed in every text footer.
func (d *FooterDirectory) Website() string { return d.website }

// IconName returns the base name of the regional icon image.
func (d *FooterDirectory) IconName() string { return d.iconName }

func trimColumns(b FooterBlock) FooterBlock {
	cols := make([]string, 0, len(b.Columns))
	for _, c := range b.Columns {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	if len(cols) > MaxFooterColumns {
		cols = cols[:MaxFooterColumns]
	}
	return FooterBlock{Columns: cols, Icon: b.Icon}
}
