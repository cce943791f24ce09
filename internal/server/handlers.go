package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/kertas/internal/config"
	"github.com/hyperjump/kertas/internal/convert"
	"github.com/hyperjump/kertas/internal/models"
	"github.com/hyperjump/kertas/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// conversionResponse is the body of a successful POST /api/v1/convert.
type conversionResponse struct {
	ID          string                 `json:"id"`
	SourceID    string                 `json:"source_id"`
	SourceName  string                 `json:"source_name"`
	Title       string                 `json:"title"`
	Paragraphs  int                    `json:"paragraphs"`
	Text        string                 `json:"text"`
	Pages       int                    `json:"pages"`
	State       models.ConversionState `json:"state"`
	FailureKind models.FailureKind     `json:"failure_kind,omitempty"`
	LayoutError string                 `json:"layout_error,omitempty"`
	PDFURL      string                 `json:"pdf_url,omitempty"`
	Cached      bool                   `json:"cached"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.logger.Debug("convert request", zap.String("name", doc.Name), zap.Int("bytes", len(doc.Data)))
	res, err := s.converter.Convert(r.Context(), doc)
	if err != nil {
		s.respondConvertError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		if res.PDF == nil {
			s.respondKindError(w, http.StatusUnprocessableEntity, res.LayoutErr.Error(), res.FailureKind)
			return
		}
		s.respondPDF(w, res.Title, res.PDF)
		return
	}

	resp := conversionResponse{
		ID:          res.ID,
		SourceID:    res.SourceID,
		SourceName:  res.SourceName,
		Title:       res.Title,
		Text:        res.ExtractedText,
		Pages:       res.Pages,
		State:       res.State,
		FailureKind: res.FailureKind,
		Cached:      res.Cached,
	}
	if res.Content != nil {
		resp.Paragraphs = len(res.Content.Paragraphs)
	}
	if res.LayoutErr != nil {
		resp.LayoutError = res.LayoutErr.Error()
	}
	if res.PDF != nil && res.OutputPath != "" {
		resp.PDFURL = "/api/v1/conversions/" + res.ID + "/pdf"
	}
	status := http.StatusCreated
	if res.Cached {
		status = http.StatusOK
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.logger.Debug("extract request", zap.String("name", doc.Name), zap.Int("bytes", len(doc.Data)))
	content, err := s.converter.Extract(r.Context(), doc)
	if err != nil {
		s.respondConvertError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, content)
}

// readUpload reads the source document from a multipart "file" field or from the raw
// body named by the "name" query parameter. On failure it writes the response itself.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*models.SourceDocument, bool) {
	limit := s.config.MaxUploadBytes
	if limit <= 0 {
		limit = config.DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		doc *models.SourceDocument
		err error
	)
	if mediaType == "multipart/form-data" {
		doc, err = readMultipart(r, limit)
	} else {
		doc, err = readRaw(r, mediaType)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
			return nil, false
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return doc, true
}

func readMultipart(r *http.Request, limit int64) (*models.SourceDocument, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("multipart field \"file\" is required")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	return &models.SourceDocument{
		Name:      filepath.Base(header.Filename),
		MediaType: uploadMediaType(mediaType),
		Data:      data,
	}, nil
}

func readRaw(r *http.Request, mediaType string) (*models.SourceDocument, error) {
	name := r.URL.Query().Get("name")
	if name == "" {
		return nil, errors.New("query parameter \"name\" is required for a raw upload")
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return &models.SourceDocument{
		Name:      filepath.Base(name),
		MediaType: uploadMediaType(mediaType),
		Data:      data,
	}, nil
}

// uploadMediaType drops generic types that say nothing about the document format.
func uploadMediaType(mediaType string) string {
	if mediaType == "application/octet-stream" {
		return ""
	}
	return mediaType
}

func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	ctx := r.Context()
	recs, err := s.storage.ListConversions(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list conversions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountConversions(ctx)
	if err != nil {
		s.logger.Error("count conversions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []*models.ConversionRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversions": recs,
		"total":       total,
		"offset":      offset,
		"limit":       limit,
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// lookupConversion fetches the record named by the {id} URL parameter, writing a 404 or
// 500 when it cannot.
func (s *Server) lookupConversion(w http.ResponseWriter, r *http.Request) (*models.ConversionRecord, bool) {
	id := chi.URLParam(r, "id")
	rec, err := s.storage.GetConversion(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "conversion not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("get conversion failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return rec, true
}

func (s *Server) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupConversion(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetConversionPDF(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupConversion(w, r)
	if !ok {
		return
	}
	if rec.State != models.StateReady || rec.OutputPath == "" || s.outputs == nil {
		s.respondKindError(w, http.StatusConflict,
			fmt.Sprintf("conversion %s has no PDF (state %s)", rec.ID, rec.State), rec.FailureKind)
		return
	}
	data, err := s.outputs.Load(rec.OutputPath)
	if err != nil {
		s.logger.Warn("pdf output missing", zap.String("id", rec.ID), zap.Error(err))
		s.respondError(w, http.StatusNotFound, "pdf output missing")
		return
	}
	s.respondPDF(w, rec.Title, data)
}

func (s *Server) handleGetConversionText(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupConversion(w, r)
	if !ok {
		return
	}
	if rec.State != models.StateReady && !rec.FailureKind.TextOnly() {
		s.respondKindError(w, http.StatusConflict,
			fmt.Sprintf("conversion %s has no extracted text (state %s)", rec.ID, rec.State), rec.FailureKind)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, rec.ExtractedText)
}

func (s *Server) handleDeleteConversion(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupConversion(w, r)
	if !ok {
		return
	}
	s.logger.Debug("delete conversion request", zap.String("id", rec.ID))
	if err := s.converter.Delete(r.Context(), rec.ID); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := s.storage.CountConversions(ctx)
	if err != nil {
		s.logger.Error("status: count conversions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byState, err := s.storage.CountByState(ctx)
	if err != nil {
		s.logger.Error("status: count by state failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"conversions": total,
		"by_state":    byState,
	}

	layoutCfg := s.converter.Compiler().Config()
	configInfo := map[string]interface{}{
		"page_size": layoutCfg.PageSize,
	}
	if s.watchConfig != nil {
		configInfo["verify_output"] = s.watchConfig.Convert.VerifyOutput
		configInfo["cache_size"] = s.watchConfig.Convert.CacheSize
		configInfo["database_path"] = s.watchConfig.Storage.DatabasePath
		configInfo["output_dir"] = s.watchConfig.Storage.OutputDir

		diskBytes, err := storage.DiskUsageBytes(
			append(storage.HistoryFiles(s.watchConfig.Storage.DatabasePath), s.watchConfig.Storage.OutputDir)...,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	if s.watch != nil {
		configInfo["watch_directories"] = s.watch.Directories()
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	dirs := s.watch.Directories()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
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
		s.respondError(w, http.StatusInternalServerError, err.Error())
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
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
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
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch roots back to the config file.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.watchConfig == nil {
		return
	}
	s.watchConfigMu.Lock()
	s.watchConfig.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.watchConfig)
	s.watchConfigMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// respondConvertError maps an extraction or conversion error to a status code.
func (s *Server) respondConvertError(w http.ResponseWriter, err error) {
	kind := convert.FailureKindOf(err)
	switch kind {
	case models.FailureUnsupported:
		s.respondKindError(w, http.StatusUnsupportedMediaType, err.Error(), kind)
	case models.FailureContainer, models.FailureMarkup, models.FailureLayout:
		s.respondKindError(w, http.StatusUnprocessableEntity, err.Error(), kind)
	default:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.respondKindError(w, http.StatusServiceUnavailable, "conversion cancelled", kind)
			return
		}
		s.logger.Error("conversion failed", zap.Error(err))
		s.respondKindError(w, http.StatusInternalServerError, err.Error(), kind)
	}
}

func (s *Server) respondPDF(w http.ResponseWriter, title string, data []byte) {
	name := strings.ReplaceAll(title, `"`, "")
	if name == "" {
		name = "document"
	}
	w.Header().Set("Content-Type", models.PDFMediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name + ".pdf"}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) respondKindError(w http.ResponseWriter, status int, message string, kind models.FailureKind) {
	s.respondJSON(w, status, map[string]string{"error": message, "kind": string(kind)})
}
