package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/hazyhaar/returns-tracker/pkg/kit"
	"github.com/hazyhaar/returns-tracker/pkg/track"
)

// maxUploadBytes caps the direct-upload path. Returns sheets are a few MB;
// anything bigger is a mistake.
const maxUploadBytes = 32 << 20

// NewRouter returns an http.Handler with all returns-tracker API routes.
func NewRouter(tr *track.Tracker) http.Handler {
	mux := http.NewServeMux()
	h := &handler{
		search:      searchEndpoint(tr),
		refresh:     refreshEndpoint(tr),
		upload:      uploadEndpoint(tr),
		diagnostics: diagnosticsEndpoint(tr),
		tracker:     tr,
	}

	mux.HandleFunc("GET /v1/search/{imei}", h.handleSearch)
	mux.HandleFunc("POST /v1/refresh", h.handleRefresh)
	mux.HandleFunc("POST /v1/upload", h.handleUpload)
	mux.HandleFunc("GET /v1/diagnostics", h.handleDiagnostics)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(mux)
}

type handler struct {
	search      kit.Endpoint
	refresh     kit.Endpoint
	upload      kit.Endpoint
	diagnostics kit.Endpoint
	tracker     *track.Tracker
}

// --- search one identifier ---

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("imei")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing imei")
		return
	}

	resp, err := h.search(r.Context(), &searchReq{Query: query})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- refresh: invalidate cache + reload from source ---

func (h *handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.refresh(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- upload: operator-supplied spreadsheet, bypasses the network ---

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload body: "+err.Error())
		return
	}

	resp, err := h.upload(r.Context(), &uploadReq{Data: data})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- diagnostics ---

func (h *handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	resp, err := h.diagnostics(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status string `json:"status"`
	Loaded bool   `json:"loaded"`
	Rows   int    `json:"rows"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	d := h.tracker.Diagnostics()
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Loaded: d.Loaded,
		Rows:   d.RowCount,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
