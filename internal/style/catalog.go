// Package style holds the style catalogue and the image filters behind each style.
package style

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/style-studio/backend/internal/models"
)

// Style keys shipped with the default catalogue.
const (
	Ghibli      = "ghibli"
	Cartoon     = "cartoon"
	Sketch      = "sketch"
	OilPainting = "oil_painting"
	Watercolor  = "watercolor"
	Anime       = "anime"
)

var defaultStyles = []models.Style{
	{Key: Ghibli, Label: "Studio Ghibli Style", Description: "Soft, painted look with lifted colours"},
	{Key: Cartoon, Label: "Cartoon Style", Description: "Flat colour regions with dark outlines"},
	{Key: Sketch, Label: "Pencil Sketch", Description: "Greyscale pencil drawing"},
	{Key: OilPainting, Label: "Oil Painting", Description: "Thick brush strokes"},
	{Key: Watercolor, Label: "Watercolor", Description: "Washed out colours and soft edges"},
	{Key: Anime, Label: "Anime Style", Description: "Smooth shading with bold outlines"},
}

// Catalog is an ordered, immutable set of selectable styles.
type Catalog struct {
	styles []models.Style
	index  map[string]int
}

type catalogFile struct {
	Styles []models.Style `yaml:"styles"`
}

// DefaultCatalog returns the built-in six styles.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(defaultStyles)
	return c
}

// NewCatalog builds a catalogue, rejecting empty or duplicate keys.
func NewCatalog(styles []models.Style) (*Catalog, error) {
	if len(styles) == 0 {
		return nil, fmt.Errorf("style catalog is empty")
	}
	c := &Catalog{
		styles: make([]models.Style, 0, len(styles)),
		index:  make(map[string]int, len(styles)),
	}
	for _, s := range styles {
		if s.Key == "" {
			return nil, fmt.Errorf("style without key")
		}
		if _, dup := c.index[s.Key]; dup {
			return nil, fmt.Errorf("duplicate style key %q", s.Key)
		}
		if s.Label == "" {
			s.Label = s.Key
		}
		c.index[s.Key] = len(c.styles)
		c.styles = append(c.styles, s)
	}
	return c, nil
}

// LoadCatalog reads a YAML catalogue file. An empty path yields the default catalogue.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening style catalog: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog parses a YAML catalogue of the form `styles: [{key, label, description}]`.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing style catalog: %w", err)
	}
	return NewCatalog(file.Styles)
}

// Lookup returns the style registered under key.
func (c *Catalog) Lookup(key string) (models.Style, bool) {
	i, ok := c.index[key]
	if !ok {
		return models.Style{}, false
	}
	return c.styles[i], true
}

// Has reports whether key is a selectable style.
func (c *Catalog) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// List returns the styles in catalogue order.
func (c *Catalog) List() []models.Style {
	out := make([]models.Style, len(c.styles))
	copy(out, c.styles)
	return out
}
