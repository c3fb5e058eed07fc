// Package process terminates the headless browser tree started for logo
// rasterizing. Chrome forks renderer and GPU helpers that outlive the
// launcher when only the parent is killed.
package process

import "errors"

// ErrInvalidPID is returned for a PID that would address the caller's own
// process group.
var ErrInvalidPID = errors.New("invalid pid")

// KillProcessGroup kills pid and its descendants. Best effort: the launcher's
// own Kill runs afterwards as a fallback.
func KillProcessGroup(pid int) error {
	if pid <= 0 {
		return ErrInvalidPID
	}
	return killTree(pid)
}
