package util

import (
	raven "github.com/getsentry/raven-go"
)

// ErrorReporter - Forwards sampling failures to Sentry, if a DSN is configured
type ErrorReporter struct {
	client *raven.Client
	tags   map[string]string
}

// NewErrorReporter - Returns a reporter for the given DSN. An empty DSN gives a
// reporter that drops everything.
func NewErrorReporter(dsn string, tags map[string]string) (*ErrorReporter, error) {
	if dsn == "" {
		return &ErrorReporter{}, nil
	}
	client, err := raven.New(dsn)
	if err != nil {
		return nil, err
	}
	client.SetRelease(CollectorVersion)
	return &ErrorReporter{client: client, tags: tags}, nil
}

// Enabled - Whether reports are actually sent anywhere
func (r *ErrorReporter) Enabled() bool {
	return r != nil && r.client != nil
}

// Report - Sends err without waiting for delivery
func (r *ErrorReporter) Report(err error, tags map[string]string) {
	if !r.Enabled() || err == nil {
		return
	}
	merged := make(map[string]string, len(r.tags)+len(tags))
	for k, v := range r.tags {
		merged[k] = v
	}
	for k, v := range tags {
		merged[k] = v
	}
	r.client.CaptureError(err, merged)
}

// Close - Waits for pending reports to be sent
func (r *ErrorReporter) Close() {
	if !r.Enabled() {
		return
	}
	r.client.Wait()
	r.client.Close()
}
