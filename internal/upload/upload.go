// Package upload stores uploaded images on the local filesystem.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Form field names for uploaded files.
const (
	ItemField    = "file"
	ProfileField = "profileImage"
)

// ErrInvalidFileType is returned for uploads that are not images.
var ErrInvalidFileType = errors.New("not an image")

// Disk stores files in a local directory. Files are addressed by filename
// only.
type Disk struct {
	Dir string

	// now is replaced in tests.
	now func() time.Time
}

// NewDisk returns a Disk rooted at dir, creating the directory if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Disk{Dir: dir, now: time.Now}, nil
}

// DetectMIME returns the declared content type of an uploaded file, or the
// sniffed type when the client sent none.
func DetectMIME(fh *multipart.FileHeader) (string, error) {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct, nil
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}

// IsImage reports whether a MIME type names an image.
func IsImage(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}

// CheckImage returns ErrInvalidFileType unless fh is an image.
func CheckImage(fh *multipart.FileHeader) error {
	mime, err := DetectMIME(fh)
	if err != nil {
		return err
	}
	if !IsImage(mime) {
		return fmt.Errorf("%w: %s", ErrInvalidFileType, mime)
	}
	return nil
}

// sanitizeName strips any directory components and characters that are
// awkward in URLs from an uploaded filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == 0:
			return -1
		case r == ' ' || r == '?' || r == '#' || r == '%':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// Save validates that fh is an image and writes it under a name made of a
// nanosecond timestamp and the original filename. It returns the stored
// filename.
func (d *Disk) Save(fh *multipart.FileHeader) (string, error) {
	if err := CheckImage(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	base := sanitizeName(fh.Filename)
	ts := d.now().UnixNano()

	// O_EXCL guarantees an existing file is never overwritten; on the rare
	// collision the timestamp is bumped.
	for attempt := 0; attempt < 10; attempt++ {
		name := strconv.FormatInt(ts+int64(attempt), 10) + "-" + base
		dst, err := os.OpenFile(filepath.Join(d.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating file: %w", err)
		}

		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			os.Remove(dst.Name())
			return "", fmt.Errorf("writing file: %w", err)
		}
		if err := dst.Close(); err != nil {
			os.Remove(dst.Name())
			return "", fmt.Errorf("closing file: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("could not allocate a unique filename for %q", base)
}

// Remove deletes a stored file. Missing files are not an error.
func (d *Disk) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(d.Dir, sanitizeName(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

// Handler serves stored files under prefix.
func (d *Disk) Handler(prefix string) http.Handler {
	return http.StripPrefix(prefix, noDirListing(http.FileServer(http.Dir(d.Dir))))
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
