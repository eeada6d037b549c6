package wal

import (
	"encoding/binary"
	"fmt"
	"io"
)

func int32At(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off : off+4]))
}

func (h *Header) unmarshal(b *[HeaderSize]byte) {
	copy(h.Name[:], b[offName:offWidth])
	h.Width = int32At(b[:], offWidth)
	h.Height = int32At(b[:], offHeight)
	for i := range h.MipOffsets {
		h.MipOffsets[i] = int32At(b[:], offMips+4*i)
	}
	copy(h.AnimName[:], b[offAnimName:offFlags])
	h.Flags = int32At(b[:], offFlags)
	h.Contents = int32At(b[:], offContents)
	h.Value = int32At(b[:], offValue)
}

// DecodeHeader reads exactly HeaderSize bytes from r and returns the decoded
// header. If r holds fewer than HeaderSize bytes ErrTruncatedHeader is
// returned and, if r is also an io.Seeker, its position is restored so no
// bytes are consumed. A seeker that can't actually seek, such as a pipe, is
// read as a plain io.Reader.
func DecodeHeader(r io.Reader) (Header, error) {
	var start int64
	s, seekable := r.(io.Seeker)
	if seekable {
		var err error
		if start, err = s.Seek(0, io.SeekCurrent); err != nil {
			seekable = false
		}
	}

	var b [HeaderSize]byte
	n, err := io.ReadFull(r, b[:])
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		if seekable {
			if _, err := s.Seek(start, io.SeekStart); err != nil {
				return Header{}, fmt.Errorf("%w: got %d of %d bytes: %w: %w", ErrTruncatedHeader, n, HeaderSize, ErrSourceUnavailable, err)
			}
		}
		return Header{}, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, n, HeaderSize)
	default:
		return Header{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	var h Header
	h.unmarshal(&b)

	return h, nil
}
