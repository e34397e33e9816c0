package shutdown

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"
)

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("shutdown notification was not observed")
	}
}

func TestSignalIsObservedByAllObservers(t *testing.T) {
	c := New()

	const observers = 5
	var wg sync.WaitGroup
	seen := make(chan struct{}, observers)

	for i := 0; i < observers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-c.Done()
			seen <- struct{}{}
		}()
	}

	c.Signal()
	wg.Wait()

	if len(seen) != observers {
		t.Fatalf("expected %d observers to see shutdown, got %d", observers, len(seen))
	}
}

func TestLateObserverSeesFiredSignal(t *testing.T) {
	c := New()

	if c.Fired() {
		t.Fatal("expected coordinator to start un-fired")
	}

	c.Signal()

	waitClosed(t, c.Done())
	waitClosed(t, c.Context().Done())
	if !c.Fired() {
		t.Fatal("expected Fired to report true after Signal")
	}
}

func TestSignalTwiceIsNoop(t *testing.T) {
	c := New()

	c.Signal()
	c.Signal()

	waitClosed(t, c.Done())
}

func TestListenSignalsOnTerminationRequest(t *testing.T) {
	for _, sig := range []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT} {
		c := New()
		ch := make(chan os.Signal, 1)

		done := make(chan struct{})
		go func() {
			c.listen(ch)
			close(done)
		}()

		ch <- sig

		waitClosed(t, done)
		if !c.Fired() {
			t.Fatalf("expected %s to fire shutdown", sig)
		}
	}
}

func TestListenExitsWhenSignalledElsewhere(t *testing.T) {
	c := New()
	ch := make(chan os.Signal, 1)

	done := make(chan struct{})
	go func() {
		c.listen(ch)
		close(done)
	}()

	c.Signal()
	waitClosed(t, done)
}
