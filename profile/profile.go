// Package profile provides optional runtime profiling for the hxl
// command.
//
// Profiling is compiled in only with the pprof build tag. Without the
// tag every operation is a no-op with zero overhead, so callers can
// wire profiling unconditionally.
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`

// Profiler configures and starts the runtime profiler.
type Profiler struct {
	// Mode selects one of the modes reported by [Modes].
	Mode string
	// Path is the directory profile files are written to.
	Path string
	// Quiet suppresses the profiler's own logging.
	Quiet bool
}

// Start begins profiling and returns a handle for stopping it.
//
// If the binary was built without the pprof tag, or Mode is empty or
// unrecognized, Start returns a no-op handle. Both Start and Stop are
// always safe to call.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
