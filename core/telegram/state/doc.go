// Package state keeps one value per chat and serializes every read-modify-write
// on it, so two updates from the same chat never interleave.
package state
