// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package covers

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// coverExt is the only extension the store writes; everything is
// normalized to JPEG before it lands here.
const coverExt = ".jpg"

// etagSize is the BLAKE2b digest length in bytes (128-bit).
const etagSize = 16

// ErrCoverNotFound is returned when no cover file exists for a media ID.
var ErrCoverNotFound = errors.New("cover not found")

// Store keeps cover art on local disk, one JPEG per media item named
// <media-id>.jpg. Writes go through a temp file and rename so a reader
// never sees a partial image.
type Store struct {
	dir string
}

// NewStore creates the covers directory if needed and returns a store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create covers directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// FileName returns the file name a media item's cover is stored under.
func (s *Store) FileName(id uuid.UUID) string {
	return id.String() + coverExt
}

// Path returns the absolute path of a media item's cover.
func (s *Store) Path(id uuid.UUID) string {
	return filepath.Join(s.dir, s.FileName(id))
}

// Put atomically writes cover bytes for the media item.
func (s *Store) Put(id uuid.UUID, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "cover-*.tmp")
	if err != nil {
		return fmt.Errorf("create cover temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cover temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cover temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename cover into place: %w", err)
	}

	return nil
}

// Exists reports whether a cover file is present for the media item.
func (s *Store) Exists(id uuid.UUID) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// ETag computes a BLAKE2b-128 digest of the stored cover, hex encoded
// without quotes. Returns ErrCoverNotFound when no cover exists.
func (s *Store) ETag(id uuid.UUID) (string, error) {
	f, err := os.Open(s.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrCoverNotFound
		}
		return "", fmt.Errorf("open cover: %w", err)
	}
	defer f.Close()

	h, err := blake2b.New(etagSize, nil)
	if err != nil {
		return "", fmt.Errorf("init cover digest: %w", err)
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash cover: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Delete removes the media item's cover. Deleting a missing cover is not
// an error.
func (s *Store) Delete(id uuid.UUID) error {
	err := os.Remove(s.Path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete cover: %w", err)
	}
	return nil
}
