// Package catalog supplies the menu: category and item listings loaded
// from a YAML file, with a built-in sample menu when the file is
// unavailable. Items are immutable once loaded and iteration order is
// the file's insertion order, so lookups are deterministic.
package catalog
