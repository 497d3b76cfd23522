// Package app wires the loader, registry, engine and handler modules into a
// runnable application. It runs a graph once from the command line or serves
// it over HTTP, and is decoupled from any specific entrypoint.
package app
