package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/notify"
	"github.com/nepaledu/edusearch/internal/search"
	"github.com/nepaledu/edusearch/internal/storage"
)

// maxEntityBody bounds PUT /entities payloads.
const maxEntityBody = 32 << 20

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, req)
}

// handleSearchGet takes the query from q and each filter from a parameter of the same name.
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	values := make(map[string]string, len(params))
	for name := range params {
		values[name] = params.Get(name)
	}
	s.runSearch(w, r, models.SearchRequest{Query: params.Get("q"), Filters: models.FiltersFromMap(values)})
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req models.SearchRequest) {
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Any("filters", req.Filters))
	resp, err := s.engine.Run(r.Context(), req)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	if err := s.history.Record(r.Context(), req.Query); err != nil {
		s.logger.Warn("failed to record search history", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	switch {
	case search.IsValidation(err):
		s.respondError(w, http.StatusBadRequest, search.UserMessage(err))
	default:
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, search.UserMessage(err))
	}
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.engine.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("suggest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.History(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.history.ClearHistory(r.Context()); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type saveRequest struct {
	Name    string         `json:"name"`
	Query   string         `json:"query"`
	Filters models.Filters `json:"filters"`
}

func (s *Server) handleSavedCreate(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := s.history.Save(r.Context(), req.Name, req.Query, req.Filters)
	if err != nil {
		var valErr *models.ValidationError
		if errors.As(err, &valErr) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleSavedList(w http.ResponseWriter, r *http.Request) {
	saved, err := s.history.List(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"saved": saved})
}

func (s *Server) handleSavedGet(w http.ResponseWriter, r *http.Request) {
	saved, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "saved search not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleSavedDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.history.Delete(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "saved search not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type savedRunResponse struct {
	Found bool `json:"found"`
	*models.SearchResponse
}

// handleSavedRun re-runs a saved search. An unknown id is not an error: the
// response says found=false with no results.
func (s *Server) handleSavedRun(w http.ResponseWriter, r *http.Request) {
	saved, err := s.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		s.respondJSON(w, http.StatusOK, savedRunResponse{
			SearchResponse: &models.SearchResponse{Results: []*models.Result{}},
		})
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp, err := s.engine.Run(r.Context(), models.SearchRequest{Query: saved.Query, Filters: saved.Filters})
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	if err := s.history.Record(r.Context(), saved.Query); err != nil {
		s.logger.Warn("failed to record search history", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, savedRunResponse{Found: true, SearchResponse: resp})
}

func (s *Server) handleEntitiesGet(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	entities, err := s.entities.List(r.Context(), kind)
	if err != nil {
		s.logger.Error("list entities failed", zap.Stringer("kind", kind), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, entities)
}

func (s *Server) handleEntitiesPut(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEntityBody))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entities, err := models.DecodeEntities(kind, body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.entities.ReplaceAll(r.Context(), kind, entities); err != nil {
		s.logger.Error("replace entities failed", zap.Stringer("kind", kind), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"kind": kind, "count": len(entities)})
}

func (s *Server) handleWatchDirectories(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotificationsList(w http.ResponseWriter, r *http.Request) {
	active := []notify.Notification{}
	if s.notices != nil {
		active = append(active, s.notices.Active()...)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": active})
}

func (s *Server) handleNotificationDismiss(w http.ResponseWriter, r *http.Request) {
	if s.notices == nil {
		s.respondError(w, http.StatusNotImplemented, "notifications not enabled")
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	s.notices.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := s.entities.Counts(ctx)
	if err != nil {
		s.logger.Error("status: count entities failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entityCounts := make(map[string]int, len(counts))
	for kind, n := range counts {
		entityCounts[kind.String()] = n
	}
	hist, err := s.history.History(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	saved, err := s.history.List(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"entities":       entityCounts,
		"history":        len(hist),
		"saved_searches": len(saved),
	}

	configInfo := map[string]interface{}{
		"storage_backend": s.config.Storage.Backend,
		"history_limit":   s.config.Search.HistoryLimit,
		"suggest_limit":   s.config.Search.SuggestLimit,
	}
	if s.watch != nil {
		configInfo["watch_directories"] = s.watch.Directories()
	}
	if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.BadgerPath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
