// Package registry maps node types to the handlers that execute them.
//
// Handler packages expose a Module whose Register method adds their handlers
// to a Registry during application startup. Once the registry is handed to
// the engine it is frozen: further registrations panic, so every run sees the
// same immutable mapping and concurrent runs can share it safely.
package registry
