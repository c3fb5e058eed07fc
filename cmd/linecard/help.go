package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: linecard <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Generate a line card PDF for a region or state")
	fmt.Fprintln(w, "  serve      Run the web front end")
	fmt.Fprintln(w, "  regions    List regions and their states")
	fmt.Fprintln(w, "  qrcode     Write a QR code PNG for a URL")
	fmt.Fprintln(w, "  doctor     Check credentials, assets, and browser")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'linecard help <command>' for details on a specific command.")
}

// printGenerateUsage prints usage for the generate command.
func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: linecard generate --region <name> | --state <name> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch catalog records from Airtable and render a line card PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Selection:")
	fmt.Fprintln(w, "  -r, --region <name>       Sales region (see 'linecard regions')")
	fmt.Fprintln(w, "  -s, --state <name>        State; the region is inferred when omitted")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF path")
	fmt.Fprintln(w, "      --output-dir <dir>    Output directory (default from config)")
	fmt.Fprintln(w, "      --assets <dir>        Branding images directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  AIRTABLE_PAT              Airtable personal access token (name set by airtable.tokenEnv)")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: linecard serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the web front end. Routes:")
	fmt.Fprintln(w, "  GET  /                        Form listing regions and states")
	fmt.Fprintln(w, "  POST /generate-pdf/regional   {\"region\": \"West\"}")
	fmt.Fprintln(w, "  POST /generate-pdf/state      {\"state\": \"california\"}")
	fmt.Fprintln(w, "  GET  /output/{filename}       Generated document")
	fmt.Fprintln(w, "  GET  /qrcode/{filename}       QR code PNG for the document URL")
	fmt.Fprintln(w, "  GET  /healthz                 Liveness")
	fmt.Fprintln(w, "  GET  /metrics                 Prometheus metrics")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default from config, :5000)")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent generations (0 = auto)")
	fmt.Fprintln(w, "      --output-dir <dir>    Output directory")
	fmt.Fprintln(w, "      --assets <dir>        Branding images directory")
	fmt.Fprintln(w, "      --public-url <url>    Base URL used in document links")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printRegionsUsage prints usage for the regions command.
func printRegionsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: linecard regions [--yaml] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List configured regions and the states each one covers.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --yaml                Print as YAML")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

// printQRCodeUsage prints usage for the qrcode command.
func printQRCodeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: linecard qrcode <url> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write a QR code PNG encoding url.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintf(w, "  -o, --output <path>       Output PNG path (default %s)\n", defaultQRCodeFile)
	fmt.Fprintf(w, "      --size <px>           Image size in pixels (default %d)\n", defaultQRCodeSize)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: linecard doctor [--json] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the Airtable credential, branding assets per region,")
	fmt.Fprintln(w, "Chrome availability for SVG logos, and temp directory access.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

// printCommonUsage prints output control flags.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "generate":
		printGenerateUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "regions":
		printRegionsUsage(env.Stdout)
	case "qrcode":
		printQRCodeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: linecard version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: linecard help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
