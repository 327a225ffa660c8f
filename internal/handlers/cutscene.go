package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

const (
	cutscenesPath   = "/v1/cutscenes"
	maxRequestBytes = 4 << 20
	yamlContentType = "application/yaml"
)

type CutsceneHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

type ListResponse struct {
	Cutscenes []string `json:"cutscenes"`
}

type ProblemResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func NewCutsceneHandler(log *slog.Logger, storage storage.Storage) *CutsceneHandler {
	return &CutsceneHandler{
		log:     log,
		storage: storage,
	}
}

func (h *CutsceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, cutscenesPath), "/")

	if name == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
		return
	}

	if err := storage.ValidateName(name); err != nil {
		http.Error(w, "Invalid cutscene name", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, name)
	case http.MethodPut:
		h.handlePut(w, r, name)
	case http.MethodDelete:
		h.handleDelete(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CutsceneHandler) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.storage.ListContainers(r.Context())
	if err != nil {
		h.log.Error("Failed to list cutscenes", "error", err)
		http.Error(w, "Failed to list cutscenes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Cutscenes: names}, h.log)
}

func (h *CutsceneHandler) handleGet(w http.ResponseWriter, r *http.Request, name string) {
	c, err := h.storage.LoadContainer(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Cutscene not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to get cutscene", "error", err, "name", name)
		http.Error(w, "Failed to retrieve cutscene", http.StatusInternalServerError)
		return
	}

	format := container.FormatJSON
	contentType := "application/json"
	if strings.Contains(r.Header.Get("Accept"), yamlContentType) {
		format = container.FormatYAML
		contentType = yamlContentType
	}

	data, err := container.Encode(c, format)
	if err != nil {
		h.log.Error("Failed to encode cutscene", "error", err, "name", name)
		http.Error(w, "Failed to process cutscene", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *CutsceneHandler) handlePut(w http.ResponseWriter, r *http.Request, name string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	format := container.FormatJSON
	if strings.HasPrefix(r.Header.Get("Content-Type"), yamlContentType) {
		format = container.FormatYAML
	}

	c, err := container.Decode(body, format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ProblemResponse{Error: "Invalid cutscene body: " + err.Error()}, h.log)
		return
	}
	c.Name = name

	if problems := c.Problems(); len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, ProblemResponse{Error: "Invalid cutscene", Problems: problems}, h.log)
		return
	}

	_, loadErr := h.storage.LoadContainer(r.Context(), name)
	created := errors.Is(loadErr, storage.ErrNotFound)

	if err := h.storage.SaveContainer(r.Context(), name, c); err != nil {
		h.log.Error("Failed to save cutscene", "error", err, "name", name)
		http.Error(w, "Failed to save cutscene", http.StatusInternalServerError)
		return
	}

	h.log.Info("Cutscene stored", "name", name, "nodes", len(c.Nodes), "links", len(c.Links), "created", created)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, c, h.log)
}

func (h *CutsceneHandler) handleDelete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.storage.DeleteContainer(r.Context(), name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Cutscene not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to delete cutscene", "error", err, "name", name)
		http.Error(w, "Failed to delete cutscene", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}
