// Package experiment turns a stored system definition plus user overrides
// into a ready-to-run integration.
package experiment
