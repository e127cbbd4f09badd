// Package lang holds what the stages of the ftd interpreter share: the
// diagnostic [Error] and its kinds.
//
// A document passes through these packages in order:
//
//   - [github.com/ardnew/ftd/lang/p1] splits source text into sections;
//   - [github.com/ardnew/ftd/lang/ast] classifies sections into declarations;
//   - [github.com/ardnew/ftd/lang/interp] resolves declarations into a
//     [github.com/ardnew/ftd/lang/types.Bag], suspending for imports,
//     processors, and foreign variables;
//   - [github.com/ardnew/ftd/lang/exec] expands root invocations into an
//     element tree and fires events against it, evaluating expressions with
//     [github.com/ardnew/ftd/lang/eval];
//   - [github.com/ardnew/ftd/lang/host] answers the interpreter's
//     suspensions from files on disk.
//
// Every stage reports failures as an [*Error] carrying an [ErrorKind] and,
// where known, the document and line it refers to:
//
//	index.ftd:12: value not found: "title"
//
// Match a kind with [errors.Is] and its sentinel:
//
//	if errors.Is(err, lang.ErrValueNotFound) {
//		...
//	}
package lang
