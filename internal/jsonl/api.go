package jsonl

import (
	"net/http"

	"github.com/gorilla/mux"

	"pcadvisor/internal/respond"
)

// RegisterRoutes registers GET /api/catalog/stats describing the loaded
// snapshot.
func RegisterRoutes(r *mux.Router, dataDir string, stats Stats) {
	r.HandleFunc("/api/catalog/stats", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"source":      "jsonl",
				"data_dir":    dataDir,
				"files":       stats.Files,
				"parts":       stats.Parts,
				"skipped":     stats.Skipped,
				"by_category": stats.CategoryCounts(),
			},
		})
	}).Methods(http.MethodGet)
}
