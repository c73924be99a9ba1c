// Package system defines named ODE systems and holds the built-in
// catalog.
//
// The built-in table is created once and never mutated; [Builtins] and
// [LookupBuiltin] hand out copies.
package system
