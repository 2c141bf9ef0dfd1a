package storage

import "os"

// ensureDir makes sure the directory exists.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
