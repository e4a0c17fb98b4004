package observ

import (
	"strings"
	"testing"
	"time"
)

func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	timer.now = fakeClock(time.Millisecond)

	read := timer.Begin("read")
	timer.End(read, "2 files")
	analyse := timer.Begin("analyse")
	timer.End(analyse, "")
	timer.End(42, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d", len(report.Phases))
	}
	if report.Phases[0].Name != "read" || report.Phases[0].DurationMS != 1 || report.Phases[0].Note != "2 files" {
		t.Errorf("unexpected first phase %+v", report.Phases[0])
	}
	if report.TotalMS != 2 {
		t.Errorf("total = %v", report.TotalMS)
	}

	summary := timer.Summary()
	for _, want := range []string{"timings:", "read", "2 files", "analyse", "total"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary misses %q:\n%s", want, summary)
		}
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	idx := timer.Begin("x")
	timer.End(idx, "")
	if got := timer.Report(); len(got.Phases) != 0 {
		t.Errorf("expected an empty report, got %+v", got)
	}
}
