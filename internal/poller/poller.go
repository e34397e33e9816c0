package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"guild-metrics/internal/invite"
	"guild-metrics/internal/metrics"
)

// A tick handled later than this after its deadline counts as missed.
const lateThreshold = 5 * time.Millisecond

// Fetcher retrieves one invite-info record.
type Fetcher interface {
	Fetch(ctx context.Context) (invite.Info, error)
}

// Poller drives one fetch-and-update cycle per tick. Cycles never overlap.
type Poller struct {
	fetcher Fetcher
	metrics *metrics.AllMetrics
	now     func() time.Time
}

func NewPoller(fetcher Fetcher, m *metrics.AllMetrics) *Poller {
	return &Poller{
		fetcher: fetcher,
		metrics: m,
		now:     time.Now,
	}
}

// Apply copies the fetched counts into the gauges in one update.
func Apply(info invite.Info, g *metrics.GaugeSet) {
	g.SetAll(info.MemberCount, info.PresenceCount, info.BoostCount)
}

// Start runs the poll loop until ctx is done. The first tick fires one full
// interval after Start. A cycle already in flight when ctx is done is allowed to finish.
func (p *Poller) Start(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	wg.Add(1)

	go func() {
		defer wg.Done()

		next := p.now().Add(interval)
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if ctx.Err() != nil {
				return
			}

			next = nextTick(next, p.now(), interval)

			_ = p.tick(context.WithoutCancel(ctx))

			timer.Reset(time.Until(next))
		}
	}()
}

// nextTick returns the deadline following the tick that was due at deadline
// and handled at now. Missed ticks are delayed, not replayed.
func nextTick(deadline, now time.Time, interval time.Duration) time.Time {
	if now.Sub(deadline) > lateThreshold {
		return now.Add(interval)
	}
	return deadline.Add(interval)
}

func (p *Poller) tick(ctx context.Context) error {
	info, err := p.fetcher.Fetch(ctx)
	if err != nil {
		kind := metrics.KindNetwork
		if errors.Is(err, invite.ErrDecode) {
			kind = metrics.KindDecode
		}
		p.metrics.Poll.Failures.WithLabelValues(kind).Inc()
		log.Printf("poll invite (%s): %v", kind, err)
		return err
	}

	log.Printf("Got server data members=%d presences=%d boosts=%d",
		info.MemberCount, info.PresenceCount, info.BoostCount)

	Apply(info, p.metrics.Guild)
	p.metrics.Poll.LastSuccess.Set(float64(p.now().Unix()))
	return nil
}
