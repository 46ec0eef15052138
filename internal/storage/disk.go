package storage

import (
	"os"
	"path/filepath"
)

// DiskUsage is the on-disk size of the database and the search index.
type DiskUsage struct {
	DatabaseBytes int64 `json:"database_bytes"`
	IndexBytes    int64 `json:"index_bytes"`
	TotalBytes    int64 `json:"total_bytes"`
}

// MeasureDiskUsage sizes the database file (plus its -wal and -shm siblings) and the index directory.
// Missing paths count as zero.
func MeasureDiskUsage(dbPath, indexPath string) (DiskUsage, error) {
	var u DiskUsage
	var err error
	if dbPath != "" {
		if u.DatabaseBytes, err = DiskUsageBytes(dbPath, dbPath+"-wal", dbPath+"-shm"); err != nil {
			return DiskUsage{}, err
		}
	}
	if u.IndexBytes, err = DiskUsageBytes(indexPath); err != nil {
		return DiskUsage{}, err
	}
	u.TotalBytes = u.DatabaseBytes + u.IndexBytes
	return u, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths and empty strings are skipped.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
