package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-linecard/internal/assets"
	"github.com/alnah/go-linecard/internal/config"
	"github.com/alnah/go-linecard/internal/hints"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status     string         `json:"status"`
	Credential credentialInfo `json:"credential"`
	Assets     assetsInfo     `json:"assets"`
	Chrome     chromeInfo     `json:"chrome"`
	Env        envInfo        `json:"environment"`
	System     systemInfo     `json:"system"`
	Warnings   []string       `json:"warnings,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

// credentialInfo reports whether the Airtable token is set. The value is
// never printed.
type credentialInfo struct {
	Variable string `json:"variable"`
	Set      bool   `json:"set"`
}

// assetsInfo holds branding resolution per region.
type assetsInfo struct {
	Dir     string         `json:"dir"`
	Found   bool           `json:"found"`
	Icon    string         `json:"icon,omitempty"`
	Regions []regionAssets `json:"regions,omitempty"`
}

// regionAssets lists the resolved and missing roles for one region.
type regionAssets struct {
	Region  string            `json:"region"`
	Images  map[string]string `json:"images,omitempty"`
	Missing []string          `json:"missing,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	CI         bool   `json:"ci"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	f, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}
	cfg, err := loadConfig(f.common, env)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(cfg, env)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.getenv("ROD_BROWSER_BIN"),
		},
	}

	checkCredential(result, cfg, env)
	checkAssets(result, cfg)
	checkChrome(result)
	checkEnvironment(result, env)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkCredential verifies the token variable is set.
func checkCredential(result *doctorResult, cfg *config.Config, env *Environment) {
	name := cfg.Airtable.TokenEnv
	result.Credential.Variable = name
	if strings.TrimSpace(env.getenv(name)) == "" {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s is not set%s", name, hints.ForMissingCredential(name)))
		return
	}
	result.Credential.Set = true
}

// checkAssets resolves every branding role for every configured region.
func checkAssets(result *doctorResult, cfg *config.Config) {
	result.Assets.Dir = cfg.Assets.Dir
	branding, err := assets.NewDirBranding(cfg.Assets.Dir)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Assets directory unusable: %v%s", err, hints.ForAssetsDir(cfg.Assets.Dir)))
		return
	}
	result.Assets.Found = true

	if icon, err := branding.Icon(cfg.Assets.IconName); err == nil {
		result.Assets.Icon = icon.Path
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Footer icon %q not found; text footers omit it", cfg.Assets.IconName))
	}

	for _, r := range cfg.Regions {
		rb, err := branding.ForRegion(r.Name)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Name, err))
			continue
		}
		ra := regionAssets{Region: r.Name, Images: make(map[string]string)}
		for _, role := range assets.Roles {
			if a := rb.Image(role); a != nil {
				ra.Images[string(role)] = a.Path
				continue
			}
			ra.Missing = append(ra.Missing, string(role))
		}
		if len(ra.Missing) > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: no %s image; fallback branding is drawn", r.Name, strings.Join(ra.Missing, ", ")))
		}
		result.Assets.Regions = append(result.Assets.Regions, ra)
	}
}

// checkChrome detects Chrome/Chromium installation. Only SVG logos need
// it, so a missing browser is a warning.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; SVG logos will be skipped. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s; SVG logos will be skipped", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container = hints.IsInContainer() || env.getenv("KUBERNETES_SERVICE_HOST") != ""

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Found && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkSystem verifies the temp directory used for logo downloads.
func checkSystem(result *doctorResult) {
	dir, err := os.MkdirTemp("", "linecard-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	_ = os.RemoveAll(dir)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "linecard doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Airtable")
	if r.Credential.Set {
		fmt.Fprintf(w, "  [OK] %s is set\n", r.Credential.Variable)
	} else {
		fmt.Fprintf(w, "  [ERROR] %s is not set\n", r.Credential.Variable)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Branding assets")
	if r.Assets.Found {
		fmt.Fprintf(w, "  [OK] Directory: %s\n", r.Assets.Dir)
		for _, ra := range r.Assets.Regions {
			if len(ra.Missing) == 0 {
				fmt.Fprintf(w, "  [OK] %s: header and footer images found\n", ra.Region)
			} else {
				fmt.Fprintf(w, "  [WARN] %s: missing %s\n", ra.Region, strings.Join(ra.Missing, ", "))
			}
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] Directory unusable: %s\n", r.Assets.Dir)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (SVG logos)")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to generate")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
