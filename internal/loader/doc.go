// Package loader reads graph definition files into a graph.Definition.
//
// Three formats are supported, chosen by file extension:
//
//   - .json, a document of the form
//     {"nodes": [{"id", "type", "config"}], "relations": [{"from", "fromOutput", "to", "toInput"}]}
//   - .yaml / .yml, the same structure in YAML
//   - .hcl, using `node "<id>" { ... }` and `relation { ... }` blocks
//
// A node type may be written as a string or a number; numbers are turned
// into their decimal string form. A node config may be a string, which is
// kept verbatim, or an inline object, which is serialised to compact JSON
// with sorted keys.
//
// Pointing the loader at a directory loads every supported file beneath it,
// in lexical order, and merges them into one definition.
package loader
