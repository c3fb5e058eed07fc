package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid command-line input.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// generateFlags holds flags for the generate command.
type generateFlags struct {
	common    commonFlags
	region    string
	state     string
	output    string
	outputDir string
	assets    string
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common    commonFlags
	addr      string
	workers   int
	outputDir string
	assets    string
	publicURL string
}

// regionsFlags holds flags for the regions command.
type regionsFlags struct {
	common commonFlags
	yaml   bool
}

// qrcodeFlags holds flags for the qrcode command.
type qrcodeFlags struct {
	output string
	size   int
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parse runs fs.Parse, wrapping failures as usage errors. A help request
// returns flag.ErrHelp unwrapped so callers can exit successfully.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// parseGenerateFlags parses generate command flags.
func parseGenerateFlags(args []string, stderr io.Writer) (*generateFlags, []string, error) {
	f := &generateFlags{}
	fs := newFlagSet("generate", printGenerateUsage, stderr)

	fs.StringVarP(&f.region, "region", "r", "", "sales region")
	fs.StringVarP(&f.state, "state", "s", "", "state within a region")
	fs.StringVarP(&f.output, "output", "o", "", "output PDF path")
	fs.StringVar(&f.outputDir, "output-dir", "", "output directory")
	fs.StringVar(&f.assets, "assets", "", "branding assets directory")
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printServeUsage, stderr)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (e.g., :5000)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent generations (0 = auto)")
	fs.StringVar(&f.outputDir, "output-dir", "", "output directory")
	fs.StringVar(&f.assets, "assets", "", "branding assets directory")
	fs.StringVar(&f.publicURL, "public-url", "", "base URL used in document links")
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if f.workers < 0 {
		return nil, fmt.Errorf("%w: --workers must not be negative", ErrUsage)
	}
	return f, nil
}

// parseRegionsFlags parses regions command flags.
func parseRegionsFlags(args []string, stderr io.Writer) (*regionsFlags, error) {
	f := &regionsFlags{}
	fs := newFlagSet("regions", printRegionsUsage, stderr)

	fs.BoolVar(&f.yaml, "yaml", false, "print as YAML")
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}

// parseQRCodeFlags parses qrcode command flags.
func parseQRCodeFlags(args []string, stderr io.Writer) (*qrcodeFlags, []string, error) {
	f := &qrcodeFlags{}
	fs := newFlagSet("qrcode", printQRCodeUsage, stderr)

	fs.StringVarP(&f.output, "output", "o", defaultQRCodeFile, "output PNG path")
	fs.IntVar(&f.size, "size", defaultQRCodeSize, "image size in pixels")

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", printDoctorUsage, stderr)

	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}
