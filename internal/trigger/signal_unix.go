//go:build unix

package trigger

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/ctxmap"
)

// gracePeriod is the window after the first signal during which a second
// signal is treated as "stop asking nicely" and exits immediately,
// mirroring the original implementation's watchdog.
const gracePeriod = 100 * time.Millisecond

func listenSignal(tx chan<- *ctxmap.Context, done <-chan struct{}) error {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		applog.Infof("received %s, shutting down", sig)
	case <-done:
		return nil
	}

	select {
	case tx <- nil:
	case <-done:
		return nil
	}

	watchdog := time.NewTimer(gracePeriod)
	defer watchdog.Stop()
	select {
	case sig := <-sigCh:
		applog.Warnf("received %s during shutdown, exiting immediately", sig)
		os.Exit(signalExitCode(sig))
	case <-watchdog.C:
	case <-done:
	}
	return nil
}

func signalExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return int(s)
	}
	return 1
}
