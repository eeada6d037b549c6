/*
Package wal implements a decoder for WAL textures as used by id Tech 2 based
games.

A WAL file starts with a 100 byte header holding the texture name, its
dimensions, the offsets of four mip levels, the name of the next frame in an
animation sequence and three surface values. Each mip level is stored as one
byte per pixel; the bytes are indices into an external palette which is not
part of the file. Each mip level is half the width and height of the
previous one.

All integers are little-endian.
*/
package wal

import "errors"

const (
	// HeaderSize is the size in bytes of the fixed header
	HeaderSize = 100

	// NameSize is the size in bytes of each name field
	NameSize = 32

	// MipLevels is the number of mip offsets in the header
	MipLevels = 4
)

const (
	offName     = 0
	offWidth    = offName + NameSize
	offHeight   = offWidth + 4
	offMips     = offHeight + 4
	offAnimName = offMips + 4*MipLevels
	offFlags    = offAnimName + NameSize
	offContents = offFlags + 4
	offValue    = offContents + 4
)

var (
	// ErrSourceUnavailable is returned when the source cannot be opened,
	// read or seeked.
	ErrSourceUnavailable = errors.New("wal: source unavailable")

	// ErrTruncatedHeader is returned when fewer than HeaderSize bytes are
	// available.
	ErrTruncatedHeader = errors.New("wal: truncated header")

	// ErrInvalidDimensions is returned when the width or height is not
	// positive or the pixel count doesn't fit in an int.
	ErrInvalidDimensions = errors.New("wal: invalid dimensions")

	// ErrInvalidOffset is returned when the first mip offset is negative
	// or lies beyond the end of the source.
	ErrInvalidOffset = errors.New("wal: invalid mip offset")

	// ErrTruncatedPixelData is returned when the source ends before the
	// first mip level does.
	ErrTruncatedPixelData = errors.New("wal: truncated pixel data")
)

// Header is the fixed header found at the start of every WAL file. Values
// are exactly as stored; nothing is validated.
type Header struct {
	Name       [NameSize]byte
	Width      int32
	Height     int32
	MipOffsets [MipLevels]int32
	AnimName   [NameSize]byte
	Flags      int32
	Contents   int32
	Value      int32
}
