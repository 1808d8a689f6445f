package routes

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed manifest.json
var manifestJSON []byte

// Tool is one entry of the tool manifest.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable tool.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Manifest is the document served at /mcp.json.
type Manifest struct {
	Tools []Tool `json:"tools"`
}

// LoadManifest decodes the embedded manifest.
func LoadManifest() (Manifest, error) {
	var manifest Manifest
	err := json.Unmarshal(manifestJSON, &manifest)
	return manifest, err
}

// ManifestRoutes serves the static tool manifest.
type ManifestRoutes struct{}

// NewManifestRoutes constructs manifest routes.
func NewManifestRoutes() *ManifestRoutes {
	return &ManifestRoutes{}
}

// RegisterRoutes registers the manifest endpoint.
func (r *ManifestRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/mcp.json", r.handleManifest)
}

func (r *ManifestRoutes) handleManifest(c echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, manifestJSON)
}
