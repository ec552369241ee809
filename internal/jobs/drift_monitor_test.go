package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"searchrank/internal/metrics"
	"searchrank/internal/models"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 1},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1},
		{"reordered", []string{"a", "b"}, []string{"b", "a"}, 1},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"half", []string{"a", "b", "c", "d"}, []string{"a", "b", "x", "y"}, 0.5},
		{"one side empty", []string{"a", "b"}, nil, 0},
		{"duplicate not double counted", []string{"a"}, []string{"a", "a"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlap(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

type fakeComparer struct {
	calls atomic.Int32
	cmp   models.Comparison
	err   error
}

func (f *fakeComparer) CompareSources(ctx context.Context) (models.Comparison, error) {
	f.calls.Add(1)
	return f.cmp, f.err
}

func TestDriftMonitor_SetsGauge(t *testing.T) {
	src := &fakeComparer{cmp: models.Comparison{
		RankedResult:  []string{"a", "b", "c", "d"},
		DurableResult: []string{"a", "b", "c", "e"},
	}}

	NewDriftMonitor(src, time.Hour, nil).check(context.Background())

	if got := testutil.ToFloat64(metrics.PopularOverlap); got != 0.75 {
		t.Errorf("PopularOverlap = %v, want 0.75", got)
	}
}

func TestDriftMonitor_ErrorLeavesGauge(t *testing.T) {
	metrics.PopularOverlap.Set(0.25)
	src := &fakeComparer{err: errors.New("redis down")}

	NewDriftMonitor(src, time.Hour, nil).check(context.Background())

	if got := testutil.ToFloat64(metrics.PopularOverlap); got != 0.25 {
		t.Errorf("PopularOverlap = %v, want unchanged 0.25", got)
	}
}

func TestDriftMonitor_StopsOnCancel(t *testing.T) {
	src := &fakeComparer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewDriftMonitor(src, 10*time.Millisecond, nil).Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for src.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("monitor did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
