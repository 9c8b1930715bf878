// Package trigger implements the four event producers of spec.md §4.6, one
// per file: periodic.go, http.go, once.go, signal.go. Every trigger runs in
// its own goroutine and feeds the same channel the orchestrator drains.
package trigger

import "github.com/watchloop/gitwatch/internal/ctxmap"

// Trigger is implemented by every event producer. Listen sends a *ctxmap.Context
// on tx for every check request; a literal nil is this rewrite's realisation
// of spec.md's Option<Context>::None shutdown sentinel. done is closed by
// the orchestrator at shutdown so triggers blocked only on a local
// sleep/timer exit promptly; triggers blocked on a blocking syscall (HTTP
// accept, signal receive) are allowed to outlive it (spec.md §5).
type Trigger interface {
	Listen(tx chan<- *ctxmap.Context, done <-chan struct{}) error
}
