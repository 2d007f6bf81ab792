package style

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/style-studio/backend/internal/logging"
)

// Transfer applies catalogue styles to image files.
type Transfer struct {
	catalog     *Catalog
	jpegQuality int
	log         *log.Logger
}

// NewTransfer creates a style transfer bound to a catalogue.
func NewTransfer(catalog *Catalog) *Transfer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Transfer{
		catalog:     catalog,
		jpegQuality: 95,
		log:         logging.WithPrefix("style"),
	}
}

// FilterFor resolves the built-in filter a style key runs. Unknown keys get the cartoon filter.
func (t *Transfer) FilterFor(key string) string {
	if s, ok := t.catalog.Lookup(key); ok {
		name := s.Filter
		if name == "" {
			name = s.Key
		}
		if HasFilter(name) {
			return name
		}
	}
	return Cartoon
}

// OutputExt returns the result extension for an image upload: ext itself when
// it names an encodable format, otherwise jpg.
func OutputExt(ext string) string {
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		return "jpg"
	}
	return ext
}

// ApplyImage runs the style on an in-memory image. The result keeps the input size.
func (t *Transfer) ApplyImage(img image.Image, key string) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("filter %s panicked: %v", key, r)
		}
	}()
	return filters[t.FilterFor(key)](img), nil
}

// Apply styles the image at src and writes it to dst; the format follows dst's extension.
// When decoding or filtering fails the original bytes are copied so the caller still
// gets a downloadable result.
func (t *Transfer) Apply(src, dst, key string) error {
	err := t.apply(src, dst, key)
	if err == nil {
		t.log.Debug("applied style", "style", key, "src", src)
		return nil
	}

	t.log.Error("style transfer failed, keeping original", "style", key, "src", src, "err", err)
	if cerr := copyFile(src, dst); cerr != nil {
		return fmt.Errorf("applying style %s: %w (fallback copy: %v)", key, err, cerr)
	}
	return nil
}

func (t *Transfer) apply(src, dst, key string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	out, err := t.ApplyImage(img, key)
	if err != nil {
		return err
	}
	if err := imaging.Save(out, dst, imaging.JPEGQuality(t.jpegQuality)); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// copyFile copies src to dst. Copying a file onto itself leaves it untouched.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if srcInfo, err := in.Stat(); err == nil {
		if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
			return nil
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
