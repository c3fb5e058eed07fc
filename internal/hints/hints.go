// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted as "\n  hint: <text>" and appended to error messages.
package hints

import (
	"net/http"
	"os"
	"strings"

	"github.com/alnah/go-linecard/internal/fileutil"
)

// IsInContainer detects a Docker container via the /.dockerenv marker.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForMissingCredential explains where the Airtable token is read from.
func ForMissingCredential(envName string) string {
	return format("export " + envName + "=<personal access token> or add it to a .env file")
}

// ForRetrievalStatus returns a hint for an Airtable HTTP status code.
func ForRetrievalStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return format("the access token was rejected; create a new one at airtable.com/create/tokens")
	case http.StatusForbidden:
		return format("the token lacks data.records:read scope or access to this base")
	case http.StatusNotFound:
		return format("check airtable.baseID and airtable.table in the config file")
	case http.StatusUnprocessableEntity:
		return format("the request was malformed; check airtable.pageSize (max 100)")
	case http.StatusTooManyRequests:
		return format("rate limited; lower airtable.rateLimit and retry in 30 seconds")
	}
	if status >= 500 {
		return format("Airtable is unavailable; retry later")
	}
	return ""
}

// ForBrowserConnect returns hints for browser launch errors during logo
// rasterizing. Suggests sandbox and binary overrides for CI and Docker.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return formatHints(hints)
}

// ForAssetsDir returns a hint for an unreadable branding directory.
func ForAssetsDir(dir string) string {
	return format("expected header and footer images such as " + dir + "/MidwestLogo_1.png; use --assets")
}

// ForConfigNotFound suggests --config or a user config location.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-linecard") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForUnknownRegion lists valid regions.
func ForUnknownRegion(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
