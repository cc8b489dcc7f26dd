// Package protocol owns the dispenser wire contract.
//
// Ownership boundary:
// - sentinel-framed payload encoding
// - chunking primitives
package protocol
