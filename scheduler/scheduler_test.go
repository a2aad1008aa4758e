package scheduler

import (
	"io/ioutil"
	"sync/atomic"
	"testing"
	"time"

	"github.com/memvis/collector/util"
)

var nextRunTests = []struct {
	group    string
	schedule string
	from     time.Time
	expected time.Time
}{
	{
		"stats",
		"0 * * * * * *",
		time.Date(2013, 1, 1, 0, 5, 0, 0, time.UTC),
		time.Date(2013, 1, 1, 0, 10, 0, 0, time.UTC),
	},
	{
		"reports",
		"0 * * * * * *",
		time.Date(2013, 1, 1, 0, 5, 0, 0, time.UTC),
		time.Date(2013, 1, 1, 0, 6, 0, 0, time.UTC),
	},
	{
		"reports",
		"*/15 * * * * * *",
		time.Date(2013, 1, 1, 0, 5, 20, 0, time.UTC),
		time.Date(2013, 1, 1, 0, 5, 30, 0, time.UTC),
	},
}

func TestScheduler(t *testing.T) {
	for _, test := range nextRunTests {
		groups, err := GetSchedulerGroups(test.schedule)
		if err != nil {
			t.Fatalf("Error: %v\n", err)
		}

		actualNextRun := groups[test.group].Next(test.from)
		if test.expected != actualNextRun {
			t.Errorf("\nNext run of %s:\n\texpected %s\n\tactual %s\n\n", test.group, test.expected, actualNextRun)
		}
	}
}

func TestReportsDisabled(t *testing.T) {
	groups, err := GetSchedulerGroups("")
	if err != nil {
		t.Fatalf("Error: %v\n", err)
	}
	if _, ok := groups["reports"]; ok {
		t.Errorf("expected no reports group for an empty schedule")
	}
	if _, ok := groups["stats"]; !ok {
		t.Errorf("expected stats group")
	}
}

func TestInvalidSchedule(t *testing.T) {
	if _, err := NewGroup("every minute"); err == nil {
		t.Errorf("expected an error for an invalid schedule")
	}
}

func TestSchedule(t *testing.T) {
	group, err := NewGroup("* * * * * * *")
	if err != nil {
		t.Fatalf("Error: %v\n", err)
	}

	var runs int32
	stop := group.Schedule(func() { atomic.AddInt32(&runs, 1) }, util.NewLogger(ioutil.Discard, false, true), "test")

	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&runs) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("runner was never called")
		}
		time.Sleep(10 * time.Millisecond)
	}
	close(stop)
}
