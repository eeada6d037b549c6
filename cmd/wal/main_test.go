package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/wal"
	"github.com/bodgit/wal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func texture(name, anim string, width, height int32, pixels int) []byte {
	b := make([]byte, wal.HeaderSize)
	copy(b[0:32], name)
	binary.LittleEndian.PutUint32(b[32:], uint32(width))
	binary.LittleEndian.PutUint32(b[36:], uint32(height))
	binary.LittleEndian.PutUint32(b[40:], wal.HeaderSize)
	copy(b[56:88], anim)
	binary.LittleEndian.PutUint32(b[88:], 0x20)
	return append(b, make([]byte, pixels)...)
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp(dir)
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"wal", "--db", filepath.Join(dir, "wal.db")}, args...))
	return out.String(), err
}

func TestPrintHeader(t *testing.T) {
	h := wal.Header{
		Width:      64,
		Height:     32,
		MipOffsets: [wal.MipLevels]int32{100, 2148, 2660, 2788},
		Flags:      -1,
		Value:      7,
	}
	copy(h.Name[:], "e1u1/wall01\x00junk")

	var b bytes.Buffer
	printHeader(&b, h)

	assert.Equal(t, `Name:      "e1u1/wall01"
Width:     64
Height:    32
Mip 0:     100
Mip 1:     2148
Mip 2:     2660
Mip 3:     2788
Animation: ""
Flags:     0xffffffff
Contents:  0x00000000
Value:     7
`, b.String())
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wall.wal")
	require.NoError(t, os.WriteFile(path, texture("wall", "", 8, 8, 64), 0o644))

	out, err := run(t, dir, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Name:      "wall"`)
	assert.Contains(t, out, "Pixels:    64\n")
}

func TestInfoTruncatedPixels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wall.wal")
	require.NoError(t, os.WriteFile(path, texture("wall", "", 8, 8, 10), 0o644))

	out, err := run(t, dir, "info", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), wal.ErrTruncatedPixelData.Error())
	assert.Contains(t, out, `Name:      "wall"`)
	assert.NotContains(t, out, "Pixels:")
}

func TestScanAndLookup(t *testing.T) {
	dir := t.TempDir()
	textures := filepath.Join(dir, "textures")
	require.NoError(t, os.MkdirAll(textures, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(textures, "a.wal"), texture("+0fire", "+1fire", 2, 2, 4), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(textures, "b.wal"), texture("+1fire", "+0fire", 2, 2, 4), 0o644))

	out, err := run(t, dir, "scan", textures)
	require.NoError(t, err)
	assert.Equal(t, "Added 2 textures\n", out)

	out, err = run(t, dir, "lookup", "+0FIRE")
	require.NoError(t, err)
	assert.Contains(t, out, "+0fire\t2x2")
	assert.Contains(t, out, "Animation:\n")
	assert.Contains(t, out, "+1fire\t2x2")

	_, err = run(t, dir, "lookup", "+0water")
	assert.Error(t, err)
}

func TestSessionCloseFlushesLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wall.wal")
	require.NoError(t, os.WriteFile(path, texture("wall", "", 2, 2, 4), 0o644))

	var out bytes.Buffer
	ws := &zapcore.BufferedWriteSyncer{WS: zapcore.AddSync(&out)}
	t.Cleanup(func() {
		assert.NoError(t, ws.Stop())
	})
	logger := zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), ws, zapcore.DebugLevel))

	cat, err := catalog.New(filepath.Join(dir, "wal.db"), logger)
	require.NoError(t, err)
	s := &session{Catalog: cat, logger: logger}

	_, _, err = s.Add(path)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	require.NoError(t, s.Close())
	assert.Contains(t, out.String(), "added texture")
}

func TestScanVerbose(t *testing.T) {
	dir := t.TempDir()
	textures := filepath.Join(dir, "textures")
	require.NoError(t, os.MkdirAll(textures, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(textures, "a.wal"), texture("a", "", 2, 2, 4), 0o644))

	out, err := run(t, dir, "--verbose", "scan", textures)
	require.NoError(t, err)
	assert.Equal(t, "Added 1 textures\n", out)
}
