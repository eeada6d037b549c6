package main

import (
	"fmt"
	"io"

	"github.com/bodgit/wal"
	"github.com/bodgit/wal/catalog"
)

func printHeader(w io.Writer, h wal.Header) {
	fmt.Fprintf(w, "Name:      %q\n", wal.TrimName(h.Name))
	fmt.Fprintf(w, "Width:     %d\n", h.Width)
	fmt.Fprintf(w, "Height:    %d\n", h.Height)
	for i, o := range h.MipOffsets {
		fmt.Fprintf(w, "Mip %d:     %d\n", i, o)
	}
	fmt.Fprintf(w, "Animation: %q\n", wal.TrimName(h.AnimName))
	fmt.Fprintf(w, "Flags:     0x%08x\n", uint32(h.Flags))
	fmt.Fprintf(w, "Contents:  0x%08x\n", uint32(h.Contents))
	fmt.Fprintf(w, "Value:     %d\n", h.Value)
}

func printEntry(w io.Writer, e catalog.Entry) {
	fmt.Fprintf(w, "%d\t%s\t%dx%d\t%s\t%s\n", e.ID, e.Name, e.Width, e.Height, e.SHA1, e.Path)
}
