package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/vectorpad/vectorpad/internal/auth"
	"github.com/vectorpad/vectorpad/internal/document"
	"github.com/vectorpad/vectorpad/internal/scene"
)

// Handler serves SVG exports of a document's latest scene.
type Handler struct {
	docs *document.Service
}

func NewHandler(docs *document.Service) *Handler {
	return &Handler{docs: docs}
}

// ExportSVG handles GET /documents/{documentId}/export/svg.
func (h *Handler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	documentID := mux.Vars(r)["documentId"]

	doc, err := h.docs.Get(r.Context(), documentID, userID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	raw, err := h.docs.GetLatestScene(r.Context(), documentID, userID)
	if err != nil {
		slog.Error("load scene for export", "document", documentID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var elements []*scene.Element
	if err := json.Unmarshal(raw, &elements); err != nil {
		slog.Error("decode scene for export", "document", documentID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	store := scene.NewStore()
	if err := store.Replace(elements); err != nil {
		slog.Error("restore scene for export", "document", documentID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	svg := RenderSVG(store, doc.Width, doc.Height)

	name := sanitizeFilename(doc.Name)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.svg"`, name))
	w.Write(svg)

	slog.Info("export complete", "document", documentID, "size", len(svg))
}

func sanitizeFilename(name string) string {
	if name == "" {
		return "scene"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
