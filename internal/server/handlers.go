package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/parts/internal/catalog"
	"github.com/hyperjump/parts/internal/config"
	"github.com/hyperjump/parts/internal/importer"
	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/paging"
	"github.com/hyperjump/parts/internal/storage"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListParts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		s.respondServiceError(w, err, "list parts")
		return
	}
	page, err := s.catalog.List(r.Context(), filter)
	if err != nil {
		s.respondServiceError(w, err, "list parts")
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreatePart(w http.ResponseWriter, r *http.Request) {
	var input models.PartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("create part request", zap.String("sku", input.SKU))
	part, err := s.catalog.Create(r.Context(), &input)
	if err != nil {
		s.respondServiceError(w, err, "create part")
		return
	}
	w.Header().Set("Location", "/api/v1/parts/"+part.ID)
	s.respondJSON(w, http.StatusCreated, part)
}

func (s *Server) handleGetPart(w http.ResponseWriter, r *http.Request) {
	part, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, err, "get part")
		return
	}
	s.respondJSON(w, http.StatusOK, part)
}

func (s *Server) handleGetPartBySKU(w http.ResponseWriter, r *http.Request) {
	part, err := s.catalog.GetBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		s.respondServiceError(w, err, "get part by sku")
		return
	}
	s.respondJSON(w, http.StatusOK, part)
}

func (s *Server) handleUpdatePart(w http.ResponseWriter, r *http.Request) {
	var input models.PartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("update part request", zap.String("id", id))
	part, err := s.catalog.Update(r.Context(), id, &input)
	if err != nil {
		s.respondServiceError(w, err, "update part")
		return
	}
	s.respondJSON(w, http.StatusOK, part)
}

func (s *Server) handleDeletePart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete part request", zap.String("id", id))
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.respondServiceError(w, err, "delete part")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verr := &models.ValidationError{}
	query := &models.SearchQuery{
		Query:     q.Get("q"),
		Limit:     queryInt(q.Get("limit"), "limit", verr),
		MinWeight: queryIntPtr(q.Get("min_weight"), "min_weight", verr),
		MaxWeight: queryIntPtr(q.Get("max_weight"), "max_weight", verr),
	}
	if v := q.Get("fuzzy"); v != "" {
		fuzzy, err := strconv.ParseBool(v)
		if err != nil {
			verr.Add("fuzzy", models.KindInvalid, "fuzzy must be true or false")
		}
		query.Fuzzy = fuzzy
	}
	if err := verr.OrNil(); err != nil {
		s.respondServiceError(w, err, "search")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	resp, err := s.catalog.Search(r.Context(), query)
	if err != nil {
		s.respondServiceError(w, err, "search")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWordFrequency(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseListFilter(r)
	if err != nil {
		s.respondServiceError(w, err, "word frequency")
		return
	}
	verr := &models.ValidationError{}
	req := &catalog.WordFrequencyRequest{
		ID:        q.Get("id"),
		Filter:    filter,
		MinLength: queryInt(q.Get("min_length"), "min_length", verr),
		TopN:      queryInt(q.Get("top_n"), "top_n", verr),
	}
	if err := verr.OrNil(); err != nil {
		s.respondServiceError(w, err, "word frequency")
		return
	}
	words, err := s.catalog.WordFrequency(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err, "word frequency")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"words": words})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var (
		body   io.Reader = r.Body
		name   string
		format = r.URL.Query().Get("format")
	)
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "multipart upload needs a \"file\" field")
			return
		}
		defer file.Close()
		body, name = file, header.Filename
	} else if !errors.Is(err, http.ErrNotMultipart) {
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	if format == "" {
		format = filepath.Ext(name)
	}
	f, err := importer.ParseFormat(format)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "format must be xlsx or csv")
		return
	}

	s.logger.Debug("import request", zap.String("format", string(f)), zap.String("filename", name))
	res, err := s.importer.Import(r.Context(), body, f)
	if err != nil {
		s.respondServiceError(w, err, "import")
		return
	}
	res.File = name
	status := http.StatusOK
	if res.Inserted > 0 {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.respondServiceError(w, err, "status")
		return
	}
	resp := map[string]interface{}{
		"parts": stats,
		"config": map[string]interface{}{
			"database_path":    s.config.Storage.DatabasePath,
			"bleve_index_path": s.config.Storage.BleveIndexPath,
			"page_size":        s.config.Paging.PageSize,
			"max_page_size":    s.config.Paging.MaxPageSize,
			"word_frequency": map[string]int{
				"min_length": s.config.WordFrequency.MinLength,
				"top_n":      s.config.WordFrequency.TopN,
			},
		},
	}
	if usage, err := storage.MeasureDiskUsage(s.config.Storage.DatabasePath, s.config.Storage.BleveIndexPath); err == nil {
		resp["disk_usage"] = usage
	} else {
		s.logger.Debug("status: disk usage unavailable", zap.Error(err))
	}
	if s.watch != nil {
		resp["import"] = map[string]interface{}{
			"directories": s.watch.Directories(),
			"recent":      s.watch.Reports(),
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImportDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "import directories not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type importDirRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleImportDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "import directories not enabled")
		return
	}
	var req importDirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondServiceError(w, err, "add import directory")
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.respondServiceError(w, err, "add import directory")
		return
	}
	s.persistImportDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleImportDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "import directories not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body importDirRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.respondServiceError(w, err, "remove import directory")
		return
	}
	s.persistImportDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistImportDirectories() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Import.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist import directories", zap.Error(err))
	}
}

// parseListFilter reads list filters and paging from the query string.
// Malformed numbers are reported as a *models.ValidationError.
func parseListFilter(r *http.Request) (*models.ListFilter, error) {
	q := r.URL.Query()
	verr := &models.ValidationError{}
	filter := &models.ListFilter{
		Name:      q.Get("name"),
		SKU:       q.Get("sku"),
		IsActive:  queryIntPtr(q.Get("is_active"), "is_active", verr),
		MinWeight: queryIntPtr(q.Get("min_weight"), "min_weight", verr),
		MaxWeight: queryIntPtr(q.Get("max_weight"), "max_weight", verr),
		Page:      queryInt(q.Get("page"), "page", verr),
		PageSize:  queryInt(q.Get("page_size"), "page_size", verr),
	}
	return filter, verr.OrNil()
}

func queryInt(v, field string, verr *models.ValidationError) int {
	if p := queryIntPtr(v, field, verr); p != nil {
		return *p
	}
	return 0
}

func queryIntPtr(v, field string, verr *models.ValidationError) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		verr.Add(field, models.KindInvalid, fmt.Sprintf("%s must be an integer", field))
		return nil
	}
	return &n
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []models.FieldError `json:"fields,omitempty"`
}

// respondServiceError maps err to a status code: validation and bad arguments 400,
// missing parts 404, SKU conflicts 409, anything else 500.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, op string) {
	if verr, ok := models.AsValidationError(err); ok {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
		return
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "part not found")
	case errors.Is(err, storage.ErrDuplicateSKU):
		s.respondJSON(w, http.StatusConflict, errorResponse{
			Error:  "sku already exists",
			Fields: []models.FieldError{{Field: "sku", Kind: models.KindDuplicate, Message: "part with this sku already exists"}},
		})
	case errors.Is(err, paging.ErrInvalidArgument),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrMissingColumn):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
