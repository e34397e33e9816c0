// Package shutdown broadcasts a one-shot, level-triggered shutdown notification.
package shutdown

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Signals are the termination requests that trigger shutdown.
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT}

// Coordinator fans a single shutdown notification out to any number of observers.
// Observers that subscribe after Signal still see it as fired.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Signal fires the notification. Calls after the first are no-ops.
func (c *Coordinator) Signal() {
	c.cancel()
}

// Done returns a channel that is closed once Signal has been called.
func (c *Coordinator) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Fired reports whether Signal has been called.
func (c *Coordinator) Fired() bool {
	return c.ctx.Err() != nil
}

// Context returns a context cancelled by Signal.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Listen calls Signal on the first OS termination signal.
// The listener goroutine exits after that signal or once shutdown fires for another reason.
func (c *Coordinator) Listen() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, Signals...)

	go func() {
		defer signal.Stop(ch)
		c.listen(ch)
	}()
}

func (c *Coordinator) listen(ch <-chan os.Signal) {
	select {
	case sig := <-ch:
		log.Printf("Received %s, shutting down", sig)
		c.Signal()
	case <-c.Done():
	}
}
