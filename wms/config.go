package wms

import (
	"strings"

	"github.com/creasty/defaults"
)

// LayerConfig WMS 图层配置
//
// The spatial reference is only reachable through SRS/SetSRS so that the
// cached SRSName never drifts from it.
type LayerConfig struct {
	BaseURL string
	// Layers is the comma separated LAYERS parameter
	Layers string
	Format string `default:"image/png"`

	srs     CoordinateSystem
	srsName string
}

// NewLayerConfig returns a config for baseURL with default layers, srs and format
func NewLayerConfig(baseURL string) LayerConfig {
	cfg := LayerConfig{BaseURL: baseURL}
	defaults.MustSet(&cfg)
	cfg.SetSRS(WGS84)
	return cfg
}

// SRS returns the configured coordinate system, WGS84 when unset
func (c *LayerConfig) SRS() CoordinateSystem {
	if c.srsName == "" {
		return WGS84
	}
	return c.srs
}

// SetSRS updates the coordinate system and its SRS name together
func (c *LayerConfig) SetSRS(cs CoordinateSystem) {
	c.srs = cs
	c.srsName = cs.SRSName()
}

// SRSName returns "<authority>:<code>" for the configured coordinate system
func (c *LayerConfig) SRSName() string {
	if c.srsName == "" {
		return WGS84.SRSName()
	}
	return c.srsName
}

// LayerNames splits Layers into trimmed, non empty names
func (c *LayerConfig) LayerNames() []string {
	var names []string
	for _, name := range strings.Split(c.Layers, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
