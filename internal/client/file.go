// Package client drives the upload form: file selection, the submission
// exchange with the server, the cosmetic progress bar and the result panel.
// It is UI agnostic; a View renders whatever the Controller decides.
package client

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// MaxFileSize is the largest accepted selection, exclusive.
const MaxFileSize int64 = 100 * 1024 * 1024

// File is a selected file. Open may be called more than once.
type File struct {
	Name string
	Size int64
	Type string
	Open func() (io.ReadCloser, error)
}

// FileFromPath describes a file on disk. The MIME type comes from the
// extension, or from sniffing the first bytes when the extension is unknown.
func FileFromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType, err = sniff(path)
		if err != nil {
			return nil, err
		}
	}

	return &File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Type: contentType,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FileFromBytes wraps in-memory content as a File.
func FileFromBytes(name, contentType string, data []byte) *File {
	return &File{
		Name: name,
		Size: int64(len(data)),
		Type: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
