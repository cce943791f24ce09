package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

func openZip(format string, content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &ContainerFormatError{Format: format, Reason: "not a zip", Err: err}
	}
	return zr, nil
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// readEntry returns the bytes of f. A read failure means the archive itself is damaged.
func readEntry(format string, f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &ContainerFormatError{Format: format, Reason: fmt.Sprintf("open %s", f.Name), Err: err}
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &ContainerFormatError{Format: format, Reason: fmt.Sprintf("read %s", f.Name), Err: err}
	}
	return data, nil
}
