// Package config loads and validates the tool's YAML configuration.
//
// Every field has a working default; the tool runs with no config file at
// all, and the defaults encode the operational constants the previous
// versions hardcoded: the tracked validator's coldkey, the per-subnet
// hotkey overrides, the cohort filters, and the presentation thresholds.
//
// watch.go provides fsnotify-based hot-reload for loop mode.
package config
