// Package formats reads and writes the binary containers used to hand
// terrain meshes to external renderers.
//
// All multi-byte values are little-endian. See trn.go for the TRN layout.
package formats
