//go:build !unix

package reactor

import "os"

// On non-Unix platforms there is no signal delivery story worth emulating
// (spec.md §4.5): Stop force-kills directly, and a forced kill never shows
// up as "terminated by signal" to the supervision loop.
func sendStopSignal(proc *os.Process, name string) error {
	return proc.Kill()
}

func terminatedBySignal(waitErr error) bool {
	return false
}
