// Package nodeconfig turns the opaque configuration blob attached to a graph
// node into a structured value handlers can query or decode.
//
// A blob is expected to hold a JSON object. An empty blob, or one made only
// of whitespace, parses to an empty Config. Lenient parsing additionally runs
// malformed blobs through a JSON repair pass before giving up, which helps
// with hand-edited definitions (trailing commas, single quotes, unquoted keys).
package nodeconfig
