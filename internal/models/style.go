package models

// Style describes one selectable artistic style.
type Style struct {
	Key         string `json:"key" yaml:"key"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Filter names the built-in filter to run; empty means the key itself.
	Filter string `json:"-" yaml:"filter,omitempty"`
}
