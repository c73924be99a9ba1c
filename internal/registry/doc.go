// Package registry holds the catalog of systems: the immutable built-ins
// and the user's custom library, persisted as a single JSON document.
//
// All mutations go through the Registry, which validates a definition,
// applies it in memory and then rewrites the whole library. When the write
// fails the in-memory change is undone, so the registry and the file never
// disagree after a returned error.
package registry
