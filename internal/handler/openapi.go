package handler

import (
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/crimemap/crimemap/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 document for the Query Service. The
// document is static for a given build so it is generated once.
type OpenAPIHandler struct {
	baseURL string
	version string

	once sync.Once
	doc  *openapi3.T
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(baseURL, version string) *OpenAPIHandler {
	return &OpenAPIHandler{baseURL: baseURL, version: version}
}

// ServeSpec writes the document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.doc = openapi.Generate(h.baseURL, h.version)
	})
	writeJSON(w, http.StatusOK, h.doc)
}
