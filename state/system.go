package state

// HostInfo - Static information about the sampled host, collected once per source
type HostInfo struct {
	Hostname        string
	OperatingSystem string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Architecture    string

	// Name of the virtualization system (only if we're a guest)
	VirtualizationSystem string
}
