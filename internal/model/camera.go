package model

// Camera represents a registered camera.
type Camera struct {
	ID       int64  `json:"id" yaml:"-"`
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location" yaml:"location"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
}
