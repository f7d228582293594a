package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for an input file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Matches reports whether two fingerprints describe the same file contents.
// Modification times are compared at second precision.
func (f FileFingerprint) Matches(other FileFingerprint) bool {
	return f.Path == other.Path &&
		f.Size == other.Size &&
		f.ModTime.Truncate(time.Second).Equal(other.ModTime.Truncate(time.Second))
}
