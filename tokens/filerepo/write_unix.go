//go:build !windows

package filerepo

import "github.com/google/renameio/v2"

// writeFile writes to a synced temp file in the same directory and renames it
// over path.
func writeFile(path string, data []byte) error {
	return renameio.WriteFile(path, data, fileMode)
}
