//go:build !unix

package trigger

import "github.com/watchloop/gitwatch/internal/ctxmap"

func listenSignal(tx chan<- *ctxmap.Context, done <-chan struct{}) error {
	<-done
	return nil
}
