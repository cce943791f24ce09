package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// OutputStore keeps compiled PDFs on disk, one file per conversion ID.
type OutputStore struct {
	dir string
}

// NewOutputStore returns a store rooted at dir, creating it if needed.
func NewOutputStore(dir string) (*OutputStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &OutputStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (o *OutputStore) Dir() string {
	return o.dir
}

// Path returns where the PDF of conversion id is kept.
func (o *OutputStore) Path(id string) string {
	// file IDs carry a "file:" prefix; keep names portable
	name := strings.NewReplacer(":", "_", "/", "_", string(filepath.Separator), "_").Replace(id)
	return filepath.Join(o.dir, name+".pdf")
}

// Save writes data for id and returns its path. The file is written to a temporary
// name first and renamed, so readers never see a partial PDF.
func (o *OutputStore) Save(id string, data []byte) (string, error) {
	path := o.Path(id)
	tmp, err := os.CreateTemp(o.dir, ".pending-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rename output: %w", err)
	}
	return path, nil
}

// Load reads the PDF stored at path.
func (o *OutputStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return data, nil
}

// Remove deletes the PDF of conversion id. A missing file is not an error.
func (o *OutputStore) Remove(id string) error {
	if err := os.Remove(o.Path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove output: %w", err)
	}
	return nil
}

// DiskUsageBytes sums the sizes of files and directory trees. Paths that do not exist
// count as zero, so the history database's -wal and -shm sidecars can be passed blindly.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		n, err := treeSize(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// HistoryFiles lists the history database and the sidecars WAL mode keeps beside it.
func HistoryFiles(dbPath string) []string {
	if dbPath == "" {
		return nil
	}
	return []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
}

func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
