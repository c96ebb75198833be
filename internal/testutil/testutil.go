// Package testutil holds small helpers shared by this module's _test.go
// files, so each package's tests don't keep re-deriving the same one-off
// encoding helper.
package testutil

// HexEncode lower-case hex-encodes b without pulling in encoding/hex, so
// tests can build corrupted hex substrings byte-for-byte alongside the
// good ones they're mutating.
func HexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}
