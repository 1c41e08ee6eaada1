package csvimport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ConsumeFile opens path, hands it to fn and removes the file on every
// exit path, including when fn fails or panics. A file that is already
// gone after fn returns is not an error.
func ConsumeFile(path string, fn func(f *os.File, info fs.FileInfo) error) (err error) {
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("failed to remove %s: %w", path, rmErr))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return fn(f, info)
}
