package state

// CollectionOpts - Command line switches, applied on top of the config file
type CollectionOpts struct {
	TestRun      bool
	ExportLogfmt bool

	// Zero values keep what the config file says
	IntervalOverride float64
	SourceOverride   string
}
