// Package checksum fingerprints a load's source bytes while they are read.
//
// The digest is SHA-256 over the raw (undecoded) file content, so two loads
// of byte-identical files report the same value regardless of --encoding.
package checksum
