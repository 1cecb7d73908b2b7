// Package file holds the adapters that persist to plain files in the data
// directory: config.toml settings and the members.json registry.
package file
