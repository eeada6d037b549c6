package wal

import (
	"fmt"
	"io"
	"os"
)

const maxInt = int64(^uint(0) >> 1)

// pixelCount returns width * height, refusing anything that can't be used to
// size a buffer.
func (h Header) pixelCount() (int, error) {
	if h.Width <= 0 || h.Height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, h.Width, h.Height)
	}
	// Two positive int32 values can't overflow an int64
	n := int64(h.Width) * int64(h.Height)
	if n > maxInt {
		return 0, fmt.Errorf("%w: %dx%d overflows", ErrInvalidDimensions, h.Width, h.Height)
	}
	return int(n), nil
}

// DecodeFirstMip reads the first, largest, mip level described by h from r.
// The returned slice holds Width*Height palette indices in row-major order.
// Dimensions, offset and length are all checked against the size of r before
// anything is allocated or read.
func DecodeFirstMip(r io.ReadSeeker, h Header) ([]byte, error) {
	n, err := h.pixelCount()
	if err != nil {
		return nil, err
	}

	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	offset := int64(h.MipOffsets[0])
	if offset < 0 || offset > length {
		return nil, fmt.Errorf("%w: %d with length %d", ErrInvalidOffset, offset, length)
	}

	if length-offset < int64(n) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedPixelData, n, offset, length-offset)
	}

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	b := make([]byte, n)
	switch _, err := io.ReadFull(r, b); err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		return nil, fmt.Errorf("%w: short read at offset %d", ErrTruncatedPixelData, offset)
	default:
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	return b, nil
}

// Decode reads the header and first mip level from the start of r. If only
// the pixel data is bad the decoded header is still returned alongside the
// error.
func Decode(r io.ReadSeeker) (Header, []byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	h, err := DecodeHeader(r)
	if err != nil {
		return Header{}, nil, err
	}

	b, err := DecodeFirstMip(r, h)
	if err != nil {
		return h, nil, err
	}

	return h, b, nil
}

// DecodeFile is like Decode but reads from the named file.
func DecodeFile(name string) (Header, []byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return Decode(f)
}
