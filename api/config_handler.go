// Package api: configuration endpoint.
package api

import (
	"net/http"

	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Chart      chart.Config           `json:"chart"`    // resolved preset + overrides
	Variants   []string               `json:"variants"` // available presets
	Settings   []config.SettingStatus `json:"settings"`
	ConfigFile string                 `json:"config_file,omitempty"` // path to the active config file
}

// handleGetConfig returns the running chart configuration and where the
// main settings came from.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Chart:      s.chart,
			Variants:   chart.Variants(),
			Settings:   config.CheckSettings(s.cfg, config.FileKeys(s.cfg.File)),
			ConfigFile: s.cfg.File,
		},
	})
}
