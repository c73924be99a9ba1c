// Package tui shows a live progress view while a long integration runs:
// sample count, current state and a trail of the x-y projection.
package tui
