// Package p1 splits ftd source text into sections.
//
// A document is a sequence of sections:
//
//	-- [kind ]name[: caption]
//	[kind ]key[ if <condition>]: value
//	if: <condition>
//
//	body text, up to the next section start
//
// Lines starting with ";;" are comments. A section started with "/--" is
// commented out together with its headers and body.
//
// Sections nest by closing them explicitly: "-- end: name" makes every
// section opened after the most recent open section called name its child.
// A section named "<parent>.<key>" that directly follows parent contributes
// header key to it; when it has no caption, headers or body it collects the
// following sections until "-- end: <parent>.<key>".
//
// Lines starting with "- " inside a header block add a leaf sub-section to
// the current section, and "--- [name]" closes the current section so that
// it cannot adopt children.
package p1
