// Package profile provides optional runtime profiling for the ftd command.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag. Without the tag every operation is a no-op, [Modes]
// returns nothing, and the command hides its profiling flags' effect.
//
// # Modes
//
// With the pprof tag the following modes are supported:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Usage
//
// A [Config] is built from options and started:
//
//	cfg := profile.New(
//		profile.WithMode("cpu"),
//		profile.WithDir("/tmp/profiles"),
//		profile.WithLabel("check"),
//	)
//
//	defer cfg.Start().Stop()
//
// Profiles are written below [Config.Output] with names matching the mode
// (e.g., /tmp/profiles/check/cpu.pprof).
//
// The command enables profiling with flags:
//
//	go build -tags pprof -o ftd .
//
//	# Profile interpretation of a document
//	./ftd --pprof-mode cpu run index.ftd
//
//	# Custom output directory
//	./ftd --pprof-mode heap --pprof-dir ./profiles check index.ftd
//
// The default output directory is the "pprof" directory below the user cache
// directory, e.g. $XDG_CACHE_HOME/ftd/pprof, with one subdirectory per
// command.
//
// Analyze the output with the go tool:
//
//	go tool pprof -http=: ./ftd /tmp/profiles/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
