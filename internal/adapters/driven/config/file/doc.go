// Package file provides the TOML-backed ConfigStore.
//
// The file is read into flattened dot-notation keys ("fusion.vector_weight")
// and written back as nested tables. Watch reloads the file when it changes
// on disk so long-running processes pick up new weights and thresholds.
package file
