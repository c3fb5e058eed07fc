package linecard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alnah/go-linecard/internal/assets"
	"github.com/alnah/go-linecard/internal/dateutil"
	"github.com/alnah/go-linecard/internal/fileutil"
	"github.com/alnah/go-linecard/internal/richtext"
)

// Fonts and colors.
const (
	fontFamily      = "Helvetica"
	headerFontSize  = 20.0
	addressFontSize = 9.0
	addressLeading  = 10.0
	websiteFontSize = 11.0
	footerPadY      = 2.0
	footerPadX      = 4.0
	iconColumnWidth = 0.7 * PointsPerInch
	iconWidth       = 0.5 * PointsPerInch
	websiteWidth    = 2.0 * PointsPerInch
	ruleGrey        = 128
)

// Creator is written into the PDF metadata.
const Creator = "go-linecard"

// Renderer lays out grouped clusters as a paginated PDF with regional
// branding. A Renderer may be reused; each Render call owns its own
// temporary logo directory.
type Renderer struct {
	branding    *assets.Branding
	footers     *FooterDirectory
	titleFormat string

	flattener   richtext.Flattener
	logger      *zap.Logger
	logoClient  *http.Client
	logoTimeout time.Duration
	now         func() time.Time

	rasterizer     Rasterizer
	ownsRasterizer bool
}

// NewRenderer creates a Renderer. titleFormat is a dateutil pattern for
// the document title; empty uses dateutil.DefaultTitlePattern.
func NewRenderer(branding *assets.Branding, footers *FooterDirectory, titleFormat string, opts ...Option) (*Renderer, error) {
	if branding == nil {
		return nil, fmt.Errorf("%w: branding is required", ErrInvalidConfig)
	}
	if footers == nil {
		footers = NewFooterDirectory("", "", nil, FooterBlock{})
	}
	if titleFormat == "" {
		titleFormat = dateutil.DefaultTitlePattern
	}
	if err := dateutil.Validate(titleFormat); err != nil {
		return nil, fmt.Errorf("%w: title format: %v", ErrInvalidConfig, err)
	}

	o := newOptions(opts)
	r := &Renderer{
		branding:    branding,
		footers:     footers,
		titleFormat: titleFormat,
		flattener:   o.flattener,
		logger:      o.logger,
		logoClient:  o.logoClient,
		logoTimeout: o.logoTimeout,
		now:         o.now,
		rasterizer:  o.rasterizer,
	}
	if r.flattener == nil {
		r.flattener = richtext.NewGoldmarkFlattener()
	}
	if r.rasterizer == nil {
		r.rasterizer = NewRodRasterizer(o.rasterTime)
		r.ownsRasterizer = true
	}
	return r, nil
}

// Close releases the rasterizer if the Renderer created it.
func (r *Renderer) Close() error {
	if r.ownsRasterizer {
		return r.rasterizer.Close()
	}
	return nil
}

// Title returns the document title for the given time and optional state.
func (r *Renderer) Title(t time.Time, state string) (string, error) {
	title, err := dateutil.Format(r.titleFormat, t)
	if err != nil {
		return "", err
	}
	if state = strings.TrimSpace(state); state != "" {
		title += " - " + titleCase(state)
	}
	return title, nil
}

// Render writes grouped as a PDF to in.OutputPath. The file appears only
// when the whole document was written; on failure no file is left behind.
// Missing branding and unavailable logos degrade the output and are
// reported in the returned stats.
func (r *Renderer) Render(ctx context.Context, grouped Grouped, in RenderInput) (RenderStats, error) {
	if strings.TrimSpace(in.OutputPath) == "" {
		return RenderStats{}, ErrEmptyOutputPath
	}
	if err := ctx.Err(); err != nil {
		return RenderStats{}, err
	}

	tmpDir, err := os.MkdirTemp("", "linecard-logos-*")
	if err != nil {
		return RenderStats{}, &RenderError{Op: "create logo dir", Err: err}
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	now := r.now()
	base, err := dateutil.Format(r.titleFormat, now)
	if err != nil {
		return RenderStats{}, &RenderError{Op: "format title", Err: err}
	}

	d := &document{
		r:     r,
		in:    in,
		store: newImageStore(tmpDir, r.logoClient, r.logoTimeout, r.rasterizer),
		log:   r.logger.With(zap.String("region", in.Region), zap.String("state", in.State)),
	}
	d.pdf = fpdf.New("P", "pt", "Letter", "")
	d.tr = d.pdf.UnicodeTranslatorFromDescriptor("")
	d.headerText = strings.TrimSpace(in.Region + " " + base)

	title := base
	if in.State != "" {
		title += " - " + titleCase(in.State)
	}
	d.pdf.SetTitle(title, true)
	d.pdf.SetSubject(in.Region, true)
	d.pdf.SetCreator(Creator, true)
	d.pdf.SetCreationDate(now)
	d.pdf.SetMargins(SideMargin, 0, SideMargin)
	d.pdf.SetAutoPageBreak(false, 0)

	if err := d.prepareBranding(ctx); err != nil {
		return d.stats, err
	}
	d.pdf.SetHeaderFuncMode(d.drawHeader, false)
	d.pdf.SetFooterFunc(d.drawFooter)

	if err := d.layout(ctx, grouped); err != nil {
		return d.stats, err
	}
	if d.pdf.Err() {
		return d.stats, &RenderError{Op: "layout", Err: d.pdf.Error()}
	}
	d.stats.Pages = d.pdf.PageCount()

	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o750); err != nil {
		return d.stats, &RenderError{Op: "create output dir", Err: err}
	}
	err = fileutil.AtomicWriteFile(in.OutputPath, 0o644, func(w io.Writer) error {
		return d.pdf.Output(w)
	})
	if err != nil {
		return d.stats, &RenderError{Op: "write output", Err: err}
	}

	d.log.Info("document rendered",
		zap.String("path", in.OutputPath),
		zap.Int("pages", d.stats.Pages),
		zap.Int("blocks", d.stats.Blocks),
		zap.Int("logo_failures", d.stats.LogoFailures),
	)
	return d.stats, nil
}

// document is the state of one Render call.
type document struct {
	r     *Renderer
	in    RenderInput
	pdf   *fpdf.Fpdf
	tr    func(string) string
	store *imageStore
	log   *zap.Logger
	stats RenderStats

	geo        Geometry
	first      *band // nil draws the fallback header
	later      *band
	footer     *band // nil draws the text footer
	text       *textFooter
	headerText string
	label      string
}

// band is a full-width branding image.
type band struct {
	img  imageFile
	size Size
}

// textFooter is the measured text footer.
type textFooter struct {
	icon    *imageFile
	columns []footerColumn
	height  float64
}

type footerColumn struct {
	width float64
	lines []string // translated
	bold  bool
}

// placedImage is an image positioned relative to its block.
type placedImage struct {
	img  imageFile
	at   Point
	size Size
}

// textLine is one wrapped line of description text.
type textLine struct {
	text   string // translated
	style  string
	gap    float64 // space above the line
	bullet bool    // draw a bullet before the line
	indent float64
}

// block is one laid-out cluster.
type block struct {
	key    string
	logo   *placedImage
	strip  []placedImage
	lines  []textLine
	leftH  float64
	stripH float64
	height float64
}

func (d *document) prepareBranding(ctx context.Context) error {
	rb, err := d.r.branding.ForRegion(d.in.Region)
	if err != nil {
		return &RenderError{Op: "resolve branding", Err: err}
	}

	load := func(role assets.Role) *band {
		asset := rb.Image(role)
		if asset == nil {
			d.missing(role, rb.Missing[role])
			return nil
		}
		img, err := d.store.Local(ctx, asset.Path)
		if err != nil {
			d.missing(role, err)
			return nil
		}
		w, h := img.Size()
		return &band{img: img, size: BandHeight(w, h)}
	}
	d.first = load(assets.RoleFirstHeader)
	d.later = load(assets.RoleLaterHeader)
	d.footer = load(assets.RoleFooter)

	if d.in.State != "" {
		d.label = titleCase(d.in.State)
	}

	d.geo = Geometry{
		FirstHeader: FallbackHeaderHeight,
		LaterHeader: FallbackHeaderHeight,
	}
	if d.first != nil {
		d.geo.FirstHeader = d.first.size.H
	}
	if d.later != nil {
		d.geo.LaterHeader = d.later.size.H
	}
	if d.label != "" {
		d.geo.Label = LabelLineHeight
	}
	if d.footer != nil {
		d.geo.Footer = d.footer.size.H
	} else {
		d.text = d.measureTextFooter(ctx)
		d.geo.Footer = d.text.height + FooterInset
	}
	return nil
}

func (d *document) missing(role assets.Role, cause error) {
	d.stats.MissingAsset = append(d.stats.MissingAsset, string(role))
	err := fmt.Errorf("%w: %s%s", ErrAssetMissing, d.in.Region, role)
	if cause != nil {
		err = fmt.Errorf("%w: %v", err, cause)
	}
	d.log.Warn("using fallback branding", zap.String("role", string(role)), zap.Error(err))
}

// ----------------------------------------------------------------------------
// Header and footer
// ----------------------------------------------------------------------------

func (d *document) drawHeader() {
	b, h := d.later, d.geo.LaterHeader
	if d.pdf.PageNo() == 1 {
		b, h = d.first, d.geo.FirstHeader
	}
	if b != nil {
		d.image(b.img, (PageWidth-b.size.W)/2, 0, b.size)
		return
	}

	d.pdf.SetFont(fontFamily, "B", headerFontSize)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetXY(SideMargin, 0)
	d.pdf.CellFormat(BodyWidth, h, d.tr(d.headerText), "", 0, "CM", false, 0, "")
	d.rule(h-1, 1)
}

func (d *document) drawFooter() {
	if d.footer != nil {
		d.image(d.footer.img, (PageWidth-d.footer.size.W)/2, PageHeight-d.footer.size.H, d.footer.size)
		return
	}

	t := d.text
	top := PageHeight - FooterInset - t.height
	d.rule(top, RuleWidth)

	x := SideMargin
	if t.icon != nil {
		w, h := t.icon.Size()
		size := ScaleToFit(w, h, iconWidth, t.height-2*footerPadY)
		d.image(*t.icon, x+(iconColumnWidth-size.W)/2, top+(t.height-size.H)/2, size)
		x += iconColumnWidth
	}
	d.pdf.SetTextColor(0, 0, 0)
	for _, col := range t.columns {
		style, size, leading := "", addressFontSize, addressLeading
		if col.bold {
			style, size, leading = "B", websiteFontSize, websiteFontSize+2
		}
		d.pdf.SetFont(fontFamily, style, size)
		y := top + (t.height-float64(len(col.lines))*leading)/2
		for _, line := range col.lines {
			d.pdf.SetXY(x, y)
			d.pdf.CellFormat(col.width, leading, line, "", 0, "CM", false, 0, "")
			y += leading
		}
		x += col.width
	}
}

// measureTextFooter lays out the region's footer block: icon column,
// address columns sharing the remaining width, website column.
func (d *document) measureTextFooter(ctx context.Context) *textFooter {
	fb := d.r.footers.For(d.in.Region)
	t := &textFooter{}

	if fb.Icon && d.r.footers.IconName() != "" {
		asset, err := d.r.branding.Icon(d.r.footers.IconName())
		if err == nil {
			var img imageFile
			if img, err = d.store.Local(ctx, asset.Path); err == nil {
				t.icon = &img
			}
		}
		if err != nil {
			d.log.Warn("footer icon unavailable",
				zap.String("icon", d.r.footers.IconName()),
				zap.Error(fmt.Errorf("%w: %v", ErrAssetMissing, err)))
		}
	}

	avail := BodyWidth - websiteWidth
	if t.icon != nil {
		avail -= iconColumnWidth
	}
	lines := 0
	if n := len(fb.Columns); n > 0 {
		w := avail / float64(n)
		d.pdf.SetFont(fontFamily, "", addressFontSize)
		for _, c := range fb.Columns {
			col := footerColumn{width: w, lines: d.wrap(c, w-2*footerPadX)}
			lines = max(lines, len(col.lines))
			t.columns = append(t.columns, col)
		}
	}
	if site := d.r.footers.Website(); site != "" {
		d.pdf.SetFont(fontFamily, "B", websiteFontSize)
		col := footerColumn{width: websiteWidth, lines: d.wrap(site, websiteWidth-2*footerPadX), bold: true}
		t.columns = append(t.columns, col)
	}
	t.height = max(MinFooterHeight, float64(lines)*addressLeading+2*footerPadY)
	return t
}

// ----------------------------------------------------------------------------
// Body
// ----------------------------------------------------------------------------

func (d *document) layout(ctx context.Context, grouped Grouped) error {
	d.pdf.AddPage()
	page := 1
	y := d.geo.BodyTop(page)
	bottom := d.geo.BodyBottom()

	if d.label != "" {
		d.pdf.SetFont(fontFamily, "B", LabelFontSize)
		d.pdf.SetTextColor(0, 0, 0)
		d.pdf.SetXY(SideMargin, d.geo.LabelTop())
		d.pdf.CellFormat(BodyWidth, LabelLineHeight, d.tr(d.label), "", 0, "CM", false, 0, "")
	}

	for _, c := range grouped {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := d.buildBlock(ctx, c)
		if err != nil {
			return err
		}

		// A block that does not fit moves to a new page, unless it already
		// starts a page that is at least as tall as the next one.
		fresh := y <= d.geo.BodyTop(page)
		if y+b.height > bottom && (!fresh || b.height <= d.geo.BodyHeight(page+1)) {
			d.pdf.AddPage()
			page++
			y = d.geo.BodyTop(page)
		}
		if y+b.height > bottom {
			d.clip(b, bottom-y)
			d.log.Warn("block clipped to fit page", zap.String("cluster", b.key))
		}

		d.drawBlock(b, y)
		y += b.height
		d.rule(y, RuleWidth)
		y += BlockSpacer
		d.stats.Blocks++
	}
	return nil
}

func (d *document) buildBlock(ctx context.Context, c Cluster) (*block, error) {
	b := &block{key: c.Key}

	if c.Parent != nil {
		if img := d.logo(ctx, *c.Parent); img != nil {
			w, h := img.Size()
			b.logo = &placedImage{img: *img, size: ScaleToFit(w, h, ParentLogoWidth, ParentLogoMaxHeight)}
		}
	}
	b.leftH = BodyLineHeight
	if b.logo != nil {
		b.leftH = b.logo.size.H
	}

	var sizes []Size
	for _, child := range c.Children {
		img := d.logo(ctx, child)
		if img == nil {
			continue
		}
		w, h := img.Size()
		size := ScaleToFit(w, h, ChildLogoWidth, ChildLogoMaxHeight)
		b.strip = append(b.strip, placedImage{img: *img, size: size})
		sizes = append(sizes, size)
	}
	textW := RightColumnWidth - 2*CellPadX
	pos, stripH := StripLayout(sizes, textW, ChildLogoGap)
	for i := range b.strip {
		b.strip[i].at = pos[i]
	}
	b.stripH = stripH

	desc := ""
	if c.Parent != nil {
		desc = c.Parent.Description()
	}
	lines, err := d.describe(ctx, desc, textW)
	if err != nil {
		return nil, err
	}
	b.lines = lines
	b.measure()
	return b, nil
}

// measure sets the block height from its contents.
func (b *block) measure() {
	b.height = BlockPadTop + max(b.leftH, b.rightHeight()) + BlockPadBottom
}

func (b *block) rightHeight() float64 {
	h := b.stripH
	if h > 0 {
		h += StripGap
	}
	for _, l := range b.lines {
		h += l.gap + BodyLineHeight
	}
	return h
}

// describe flattens a Markdown description into wrapped lines.
func (d *document) describe(ctx context.Context, desc string, width float64) ([]textLine, error) {
	paras := []richtext.Paragraph{{Kind: richtext.KindBody, Text: NoDescription}}
	if desc != "" {
		flat, err := d.r.flattener.Flatten(ctx, desc)
		switch {
		case err == nil && len(flat) > 0:
			paras = flat
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case err != nil:
			d.log.Warn("description kept as plain text", zap.Error(err))
			paras = []richtext.Paragraph{{Kind: richtext.KindBody, Text: desc}}
		}
	}

	var out []textLine
	for i, p := range paras {
		style, indent := "", 0.0
		switch p.Kind {
		case richtext.KindHeading:
			style = "B"
		case richtext.KindBullet:
			indent = BulletIndent
		}
		d.pdf.SetFont(fontFamily, style, BodyFontSize)
		for j, text := range d.wrap(p.Text, width-indent) {
			line := textLine{text: text, style: style, indent: indent}
			if j == 0 {
				line.bullet = p.Kind == richtext.KindBullet
				if i > 0 {
					line.gap = ParagraphGap
				}
			}
			out = append(out, line)
		}
	}
	return out, nil
}

// clip shrinks b to fit avail, dropping strip rows and description lines
// from the bottom and ending the text with an ellipsis.
func (d *document) clip(b *block, avail float64) {
	content := max(0, avail-BlockPadTop-BlockPadBottom)

	if b.logo != nil && b.logo.size.H > content {
		b.logo.size = ScaleToFit(b.logo.size.W, b.logo.size.H, b.logo.size.W, content)
		b.leftH = b.logo.size.H
	}

	kept := b.strip[:0]
	b.stripH = 0
	for _, p := range b.strip {
		if bottom := p.at.Y + p.size.H; bottom <= content {
			kept = append(kept, p)
			b.stripH = max(b.stripH, bottom)
		}
	}
	b.strip = kept

	used := b.stripH
	if used > 0 {
		used += StripGap
	}
	n := 0
	for _, l := range b.lines {
		if used+l.gap+BodyLineHeight > content {
			break
		}
		used += l.gap + BodyLineHeight
		n++
	}
	if n < len(b.lines) {
		b.lines = b.lines[:n]
		if n > 0 {
			last := &b.lines[n-1]
			d.pdf.SetFont(fontFamily, last.style, BodyFontSize)
			last.text = d.ellipsize(last.text, RightColumnWidth-2*CellPadX-last.indent)
		}
	}
	b.measure()
}

func (d *document) drawBlock(b *block, top float64) {
	content := b.height - BlockPadTop - BlockPadBottom
	left := SideMargin
	right := SideMargin + LeftColumnWidth + CellPadX

	// Left cell, vertically centered.
	ly := top + BlockPadTop + (content-b.leftH)/2
	if b.logo != nil {
		d.image(b.logo.img, left+LeftPadX, ly, b.logo.size)
	} else {
		d.pdf.SetFont(fontFamily, "", BodyFontSize)
		d.pdf.SetTextColor(0, 0, 0)
		d.pdf.SetXY(left+LeftPadX, ly)
		d.pdf.CellFormat(LeftColumnWidth-LeftPadX-CellPadX, BodyLineHeight, d.tr(NoLogo), "", 0, "LM", false, 0, "")
	}

	// Right cell, vertically centered.
	y := top + BlockPadTop + (content-b.rightHeight())/2
	for _, p := range b.strip {
		d.image(p.img, right+p.at.X, y+p.at.Y, p.size)
	}
	if b.stripH > 0 {
		y += b.stripH + StripGap
	}

	d.pdf.SetTextColor(0, 0, 0)
	width := RightColumnWidth - 2*CellPadX
	for _, l := range b.lines {
		y += l.gap
		d.pdf.SetFont(fontFamily, l.style, BodyFontSize)
		if l.bullet {
			d.pdf.SetXY(right, y)
			d.pdf.CellFormat(l.indent, BodyLineHeight, d.tr("•"), "", 0, "LM", false, 0, "")
		}
		d.pdf.SetXY(right+l.indent, y)
		d.pdf.CellFormat(width-l.indent, BodyLineHeight, l.text, "", 0, "LM", false, 0, "")
		y += BodyLineHeight
	}
}

// logo downloads and normalizes a record's logo. Failures are counted and
// logged; the caller draws a placeholder or skips the image.
func (d *document) logo(ctx context.Context, rec Record) *imageFile {
	ref, ok := rec.Logo()
	if !ok {
		return nil
	}
	img, err := d.store.Download(ctx, ref)
	if err != nil {
		d.stats.LogoFailures++
		d.log.Warn("logo unavailable",
			zap.String("manufacturer", rec.Name()),
			zap.String("url", ref.URL),
			zap.Error(err))
		return nil
	}
	return &img
}

// ----------------------------------------------------------------------------
// Drawing helpers
// ----------------------------------------------------------------------------

func (d *document) image(img imageFile, x, y float64, size Size) {
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.ImageOptions(img.Path, x, y, size.W, size.H, false, opt, 0, "")
}

func (d *document) rule(y, width float64) {
	d.pdf.SetDrawColor(ruleGrey, ruleGrey, ruleGrey)
	d.pdf.SetLineWidth(width)
	d.pdf.Line(SideMargin, y, PageWidth-SideMargin, y)
}

// wrap translates s to the PDF code page and splits it into lines that
// fit width in the current font. Explicit "\n" breaks are kept.
func (d *document) wrap(s string, width float64) []string {
	var out []string
	for _, seg := range strings.Split(s, "\n") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		for _, line := range d.pdf.SplitLines([]byte(d.tr(seg)), width) {
			if len(line) > 0 {
				out = append(out, string(line))
			}
		}
	}
	return out
}

// ellipsize shortens a translated line so that it plus an ellipsis fits
// width in the current font.
func (d *document) ellipsize(s string, width float64) string {
	dots := d.tr("…")
	for s != "" && d.pdf.GetStringWidth(s+dots) > width {
		s = s[:len(s)-1]
	}
	return strings.TrimRight(s, " ") + dots
}

// titleCase turns "new york" into "New York". A Caser is stateful, so one
// is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
