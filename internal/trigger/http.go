package trigger

import (
	"fmt"
	"net"
	"net/http"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/ctxmap"
)

// HTTP binds BindAddr and treats any request as a check request. Bind
// failure is a misconfiguration (spec.md §4.6).
type HTTP struct {
	BindAddr string
}

// Listen binds BindAddr and serves until done closes: closing done closes
// the server, which unblocks Accept, and Listen then returns nil. The
// orchestrator does not wait for this goroutine to return on shutdown.
func (h HTTP) Listen(tx chan<- *ctxmap.Context, done <-chan struct{}) error {
	listener, err := net.Listen("tcp", h.BindAddr)
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrTriggerBindFailed, err)
	}

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cc := ctxmap.New()
			cc.Set(ctxmap.KeyTriggerName, ctxmap.TriggerHTTP)
			cc.Set(ctxmap.KeyHTTPMethod, r.Method)
			cc.Set(ctxmap.KeyHTTPURL, r.URL.String())

			select {
			case tx <- cc:
			case <-done:
			}

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		}),
	}

	go func() {
		<-done
		_ = server.Close()
	}()

	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%w: %s", apperrors.ErrTriggerBindFailed, err)
	}
	return nil
}
