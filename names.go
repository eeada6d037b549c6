package wal

import "bytes"

// TrimName returns the contents of a name field up to the first NUL byte,
// or the whole field if there isn't one. No charset conversion is done.
func TrimName(b [NameSize]byte) string {
	if i := bytes.IndexByte(b[:], 0); i >= 0 {
		return string(b[:i])
	}
	return string(b[:])
}
