/*
Package catalog maintains a sqlite database of WAL textures so they can be
looked up by name and their animation sequences followed without rescanning
the filesystem.
*/
package catalog

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/wal"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a texture isn't in the catalog.
var ErrNotFound = errors.New("catalog: texture not found")

// Entry is a texture as recorded in the catalog.
type Entry struct {
	ID         int64
	Path       string
	SHA1       string
	Name       string
	AnimName   string
	Width      int32
	Height     int32
	MipOffsets [wal.MipLevels]int32
	Flags      int32
	Contents   int32
	Value      int32
}

// Catalog is a texture catalog backed by a sqlite database.
type Catalog struct {
	db     *sql.DB
	logger *zap.Logger

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

const schema = `CREATE TABLE IF NOT EXISTS texture (
	id INTEGER PRIMARY KEY NOT NULL,
	path TEXT NOT NULL UNIQUE,
	sha1 TEXT NOT NULL,
	name TEXT NOT NULL,
	lname TEXT NOT NULL,
	anim_name TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	mip0 INTEGER NOT NULL,
	mip1 INTEGER NOT NULL,
	mip2 INTEGER NOT NULL,
	mip3 INTEGER NOT NULL,
	flags INTEGER NOT NULL,
	contents INTEGER NOT NULL,
	value INTEGER NOT NULL,
	pixels BLOB NOT NULL
)`

// New opens, creating if necessary, the catalog stored in file. A nil logger
// discards everything.
func New(file string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Scan workers share the handle, sqlite only allows one writer anyway
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS texture_lname ON texture (lname)"); err != nil {
		db.Close()
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, err
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:      db,
		logger:  logger,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	c.decoder.Close()
	if err := c.encoder.Close(); err != nil {
		c.db.Close()
		return err
	}
	return c.db.Close()
}

// Add decodes the WAL texture in file and records it, replacing any previous
// entry for the same path. The ID of the entry is returned along with whether
// anything was written; re-adding an unchanged file writes nothing.
func (c *Catalog) Add(file string) (int64, bool, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return 0, false, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", wal.ErrSourceUnavailable, err)
	}

	h, pixels, err := wal.Decode(bytes.NewReader(b))
	if err != nil {
		return 0, false, err
	}

	sha := fmt.Sprintf("%X", sha1.Sum(b))

	var id int64
	switch err := c.db.QueryRow("SELECT id FROM texture WHERE path = ? AND sha1 = ?", path, sha).Scan(&id); err {
	case sql.ErrNoRows:
	case nil:
		c.logger.Debug("texture unchanged", zap.String("path", path), zap.Int64("id", id))
		return id, false, nil
	default:
		return 0, false, err
	}

	name := wal.TrimName(h.Name)

	if _, err := c.db.Exec(`INSERT INTO texture (path, sha1, name, lname, anim_name, width, height, mip0, mip1, mip2, mip3, flags, contents, value, pixels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET sha1 = excluded.sha1, name = excluded.name, lname = excluded.lname,
		anim_name = excluded.anim_name, width = excluded.width, height = excluded.height,
		mip0 = excluded.mip0, mip1 = excluded.mip1, mip2 = excluded.mip2, mip3 = excluded.mip3,
		flags = excluded.flags, contents = excluded.contents, value = excluded.value, pixels = excluded.pixels`,
		path, sha, name, strings.ToLower(name), wal.TrimName(h.AnimName), h.Width, h.Height,
		h.MipOffsets[0], h.MipOffsets[1], h.MipOffsets[2], h.MipOffsets[3],
		h.Flags, h.Contents, h.Value, c.encoder.EncodeAll(pixels, nil)); err != nil {
		return 0, false, err
	}

	if err := c.db.QueryRow("SELECT id FROM texture WHERE path = ?", path).Scan(&id); err != nil {
		return 0, false, err
	}

	c.logger.Debug("added texture", zap.String("path", path), zap.String("name", name), zap.Int64("id", id))

	return id, true, nil
}

const columns = "id, path, sha1, name, anim_name, width, height, mip0, mip1, mip2, mip3, flags, contents, value"

type scanner interface {
	Scan(...interface{}) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.ID, &e.Path, &e.SHA1, &e.Name, &e.AnimName, &e.Width, &e.Height,
		&e.MipOffsets[0], &e.MipOffsets[1], &e.MipOffsets[2], &e.MipOffsets[3],
		&e.Flags, &e.Contents, &e.Value)
	return e, err
}

// FindByName returns every texture with the given name. Texture names are
// compared without regard to case.
func (c *Catalog) FindByName(name string) ([]Entry, error) {
	rows, err := c.db.Query("SELECT "+columns+" FROM texture WHERE lname = ? ORDER BY path", strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Pixels returns the first mip level of the texture with the given ID.
func (c *Catalog) Pixels(id int64) ([]byte, error) {
	var b []byte
	switch err := c.db.QueryRow("SELECT pixels FROM texture WHERE id = ?", id).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	case nil:
		return c.decoder.DecodeAll(b, nil)
	default:
		return nil, err
	}
}

// Animation follows the chain of animation names starting from the named
// texture and returns each frame in order. The chain ends at a frame with no
// animation name, at a name that isn't in the catalog, or when it loops back
// to a frame already returned. Where several textures share a name the first
// by path is used.
func (c *Catalog) Animation(name string) ([]Entry, error) {
	var frames []Entry
	seen := make(map[string]struct{})

	for name != "" {
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			break
		}
		seen[key] = struct{}{}

		e, err := scanEntry(c.db.QueryRow("SELECT "+columns+" FROM texture WHERE lname = ? ORDER BY path LIMIT 1", key))
		switch err {
		case sql.ErrNoRows:
			if len(frames) == 0 {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			c.logger.Warn("animation frame missing", zap.String("name", name))
			return frames, nil
		case nil:
		default:
			return nil, err
		}

		frames = append(frames, e)
		name = e.AnimName
	}

	return frames, nil
}
