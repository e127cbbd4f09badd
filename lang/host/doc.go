// Package host drives interpretation of ftd documents stored on disk.
//
// A [Host] answers every suspension of an [interp.Interpreter] until it
// reports [interp.Done]:
//
//   - imports are resolved over a search path of directories, trying
//     "<dir>/<module>.ftd" and then "<dir>/<module>/index.ftd";
//   - "$processor$" definitions are answered by a registered [Processor];
//     "env", "file", and "yaml" are registered by default;
//   - variables of foreign modules are answered by a registered [Provider].
//
// Parsed modules are kept in a [Cache] keyed by module name and source, so
// a module imported by several documents, or interpreted again without
// changes, is parsed once.
package host
