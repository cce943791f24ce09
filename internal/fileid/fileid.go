// Package fileid provides deterministic IDs: one from a file path for watched files,
// one from a document's name and bytes for conversion memoization.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	prefix        = "file:"
	contentPrefix = "sha256:"
)

// PathID names the conversion of a file on disk. Reconverting the same path yields the
// same ID, so its history row and stored PDF are replaced rather than duplicated.
func PathID(absPath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absPath)))
	return prefix + hex.EncodeToString(sum[:])
}

// ContentID identifies a source document by its file name and bytes. The name is part of
// the identity because it becomes the title and footer of the compiled PDF.
func ContentID(name string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return contentPrefix + hex.EncodeToString(h.Sum(nil))
}
