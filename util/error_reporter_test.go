package util_test

import (
	"errors"
	"testing"

	"github.com/memvis/collector/util"
)

func TestErrorReporterWithoutDsn(t *testing.T) {
	reporter, err := util.NewErrorReporter("", map[string]string{"source": "synthetic"})
	if err != nil {
		t.Fatalf("want nil; got %v", err)
	}
	if reporter.Enabled() {
		t.Errorf("reporter without DSN should be disabled")
	}
	// Must not panic or block
	reporter.Report(errors.New("paging failed"), map[string]string{"component": "paging"})
	reporter.Close()

	var nilReporter *util.ErrorReporter
	nilReporter.Report(errors.New("ignored"), nil)
}

func TestErrorReporterInvalidDsn(t *testing.T) {
	if _, err := util.NewErrorReporter("://not a dsn", nil); err == nil {
		t.Errorf("expected error for invalid DSN")
	}
}
