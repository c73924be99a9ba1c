// Package config reads and writes YAML run files and knows where the custom
// library lives by default.
package config
