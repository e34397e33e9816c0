package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func gaugeValues(t *testing.T, g prometheus.Gatherer) map[string]float64 {
	t.Helper()

	mfs, err := g.Gather()
	if err != nil {
		t.Errorf("gather failed: %v", err)
		return nil
	}

	out := make(map[string]float64)
	for _, mf := range mfs {
		switch mf.GetName() {
		case "members", "presences", "boosts":
			out[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return out
}

func TestNewMetricsRegistryInitializesAllGroups(t *testing.T) {
	reg, all := NewMetricsRegistry()

	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
	if all == nil {
		t.Fatal("expected non-nil AllMetrics")
	}
	if all.Guild == nil {
		t.Fatal("expected guild gauges to be initialized")
	}
	if all.Poll == nil {
		t.Fatal("expected poll metrics to be initialized")
	}

	if n := testutil.CollectAndCount(all.Guild); n != 3 {
		t.Fatalf("expected 3 guild gauges, got %d", n)
	}

	all.Poll.Failures.WithLabelValues(KindNetwork).Inc()
	all.Poll.LastSuccess.SetToCurrentTime()

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("gather on registry failed: %v", err)
	}
}

func TestRenderBeforeAnyUpdateReportsZeros(t *testing.T) {
	reg, _ := NewMetricsRegistry()

	out, err := Render(reg)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	body := string(out)

	for _, want := range []string{
		"# HELP members How many total members there are\n",
		"# TYPE members gauge\n",
		"members 0\n",
		"# HELP presences How many members are online\n",
		"# TYPE presences gauge\n",
		"presences 0\n",
		"# HELP boosts How many boosts the server has\n",
		"# TYPE boosts gauge\n",
		"boosts 0\n",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected render output to contain %q, got:\n%s", want, body)
		}
	}
}

func TestSetAllIsReflectedInRender(t *testing.T) {
	reg, all := NewMetricsRegistry()

	all.Guild.SetAll(1000, 200, 5)

	out, err := Render(reg)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	body := string(out)

	for _, want := range []string{"members 1000\n", "presences 200\n", "boosts 5\n"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected render output to contain %q, got:\n%s", want, body)
		}
	}

	if got := all.Guild.Snapshot(); got != (Counts{Members: 1000, Presences: 200, Boosts: 5}) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestSetAllLastWriteWins(t *testing.T) {
	_, all := NewMetricsRegistry()

	all.Guild.SetAll(1, 2, 3)
	all.Guild.SetAll(10, 20, 30)
	all.Guild.SetAll(7, 8, 9)

	if got := all.Guild.Snapshot(); got != (Counts{Members: 7, Presences: 8, Boosts: 9}) {
		t.Fatalf("expected last update to win, got %+v", got)
	}
}

func TestConcurrentGatherNeverObservesTornUpdate(t *testing.T) {
	reg, all := NewMetricsRegistry()

	const updates = 2000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= updates; i++ {
			all.Guild.SetAll(i, i, i)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v := gaugeValues(t, reg)
				if v["members"] != v["presences"] || v["presences"] != v["boosts"] {
					t.Errorf("torn read: %v", v)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestPollMetricsExportFailureKindsAtZero(t *testing.T) {
	_, all := NewMetricsRegistry()

	if v := testutil.ToFloat64(all.Poll.Failures.WithLabelValues(KindNetwork)); v != 0 {
		t.Fatalf("expected network failures to start at 0, got %f", v)
	}
	if v := testutil.ToFloat64(all.Poll.Failures.WithLabelValues(KindDecode)); v != 0 {
		t.Fatalf("expected decode failures to start at 0, got %f", v)
	}
	if n := testutil.CollectAndCount(all.Poll.Failures); n != 2 {
		t.Fatalf("expected 2 failure series, got %d", n)
	}
}

func TestRegisterRuntimeCollectors(t *testing.T) {
	reg, _ := NewMetricsRegistry()
	RegisterRuntimeCollectors(reg)

	out, err := Render(reg)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(string(out), "go_goroutines") {
		t.Fatalf("expected go runtime metrics in output")
	}
}
