// Package cli contains the command line interface for ftd.
//
// # Usage
//
//	ftd [flags] <command> [args]
//
// Documents are named either by file path or by module name. A module name
// is resolved against the search path: each --include directory in order,
// then the directories listed in FTD_PATH.
//
//	ftd run index.ftd              # interpret and print the element tree
//	ftd run --format yaml pages    # module "pages" found on the search path
//	ftd check --bag index.ftd      # report diagnostics and list definitions
//	ftd parse index.ftd            # print the section tree
//	ftd ast index.ftd              # print the declarations
//	ftd fmt -w index.ftd           # rewrite sections in canonical form
//	ftd repl index.ftd             # inspect the document interactively
//
// # Configuration
//
// Every flag may be defaulted by the YAML file $XDG_CONFIG_HOME/ftd/config.yaml
// or by an environment variable named after the flag, e.g. FTD_LOG_LEVEL.
// "ftd init" writes the file from the current flag values. Keys of the file
// name flags without dashes; nested mappings join their keys with hyphens.
//
//	log:
//	  level: debug
//	include:
//	  - ~/ftd/lib
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o ftd .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/ftd/pprof)
//
// # Exit Status
//
// The command exits with 2 when a document fails to parse or interpret, and
// with 1 on any other failure.
package cli
