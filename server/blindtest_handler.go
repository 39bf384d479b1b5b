package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"blindtest/logger"
	"blindtest/model"
	"blindtest/repository"

	"github.com/gorilla/mux"
)

// BlindtestHandler serves the CRUD API of stored blindtests.
type BlindtestHandler struct {
	repo repository.BlindtestRepository
}

func NewBlindtestHandler(repo repository.BlindtestRepository) *BlindtestHandler {
	return &BlindtestHandler{repo: repo}
}

// ListResponse is a page of blindtests.
type ListResponse struct {
	Items  []model.Blindtest `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// ListHandler handles GET /blindtests?limit=&offset=&sort=.
func (h *BlindtestHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	opts := repository.ListOptions{Sort: r.URL.Query().Get("sort")}
	var err error
	if opts.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := repository.OrderClause(opts.Sort); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts = opts.Normalize()

	items, total, err := h.repo.List(r.Context(), opts)
	if err != nil {
		logger.Error("list blindtests failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to list blindtests")
		return
	}
	if items == nil {
		items = []model.Blindtest{}
	}
	writeJSON(w, http.StatusOK, &ListResponse{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset})
}

// CreateHandler handles POST /blindtests.
func (h *BlindtestHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var b model.Blindtest
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b.ID = 0
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(r.Context(), &b); err != nil {
		logger.Error("create blindtest failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to create blindtest")
		return
	}
	logger.Info("blindtest created", logger.Int64("id", int64(b.ID)), logger.String("name", b.Name))

	w.Header().Set("Location", fmt.Sprintf("/blindtests/%d", b.ID))
	writeJSON(w, http.StatusCreated, &b)
}

// GetHandler handles GET /blindtests/{id}.
func (h *BlindtestHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("get blindtest failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load blindtest")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "blindtest not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteHandler handles DELETE /blindtests/{id}.
func (h *BlindtestHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		logger.Error("delete blindtest failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to delete blindtest")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "blindtest not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// RegisterBlindtestRoutes mounts the blindtest API. Other methods on these
// paths get 405 from the router; OPTIONS is answered by corsMiddleware.
func RegisterBlindtestRoutes(router *mux.Router, handler *BlindtestHandler) {
	router.HandleFunc("/blindtests", handler.ListHandler).Methods(http.MethodGet)
	router.HandleFunc("/blindtests", handler.CreateHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/blindtests/{id}", handler.GetHandler).Methods(http.MethodGet)
	router.HandleFunc("/blindtests/{id}", handler.DeleteHandler).Methods(http.MethodDelete, http.MethodOptions)

	logger.Info("blindtest API registered",
		logger.String("endpoints", "GET/POST /blindtests, GET/DELETE /blindtests/{id}"))
}
