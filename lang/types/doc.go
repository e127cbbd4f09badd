// Package types defines the type universe of ftd documents and the bag of
// named things an interpretation produces.
//
// [Kind] and [KindData] describe types; [Value] is the closed set of literal
// values; [PropertyValue] is a value or a name indirection; [Thing] is the
// closed set of declarations stored in a [Bag]. Things refer to each other
// by qualified name ("doc#name"), never by pointer.
package types
