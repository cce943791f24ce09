package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kertas/internal/extract"
	"github.com/hyperjump/kertas/internal/fileid"
	"github.com/hyperjump/kertas/internal/models"
	"go.uber.org/zap"
)

// ConvertFile reads the file at path and converts it. The conversion ID is derived from
// the absolute path, so converting the same file again replaces its history entry.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Result, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc := &models.SourceDocument{Name: filepath.Base(absPath), Data: data}
	if doc.IsDocx() {
		doc.MediaType = models.DocxMediaType
	}
	return c.convert(ctx, doc, FileConversionID(absPath))
}

// FileConversionID returns the conversion ID ConvertFile uses for absPath.
func FileConversionID(absPath string) string {
	return fileid.PathID(absPath)
}

// ConvertDirectory walks dir recursively and converts each regular file whose extension is
// in allowedExts (every extractable extension when empty). A file that fails does not stop
// the walk; the failures are joined into the returned error. n counts ready conversions.
func (c *Converter) ConvertDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	var failures []error
	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !ExtensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		// Resolve symlinks so we only convert regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, convErr := c.ConvertFile(ctx, path)
		switch {
		case convErr != nil:
			failures = append(failures, fmt.Errorf("%s: %w", path, convErr))
		case res.LayoutErr != nil:
			failures = append(failures, fmt.Errorf("%s: %w", path, res.LayoutErr))
		default:
			n++
		}
		return nil
	})
	if walkErr != nil {
		return n, walkErr
	}
	if c.logger != nil {
		c.logger.Debug("directory converted",
			zap.String("dir", absDir), zap.Int("converted", n), zap.Int("failed", len(failures)))
	}
	return n, errors.Join(failures...)
}

// ExtensionAllowed reports whether ext is in allowed (case-insensitive, dot optional).
// An empty allowed list means every extension the extractor supports.
func ExtensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return ext != "" && extract.Supported(ext)
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
