package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opentally/tasklist/internal/tasklist/domain"
	"github.com/opentally/tasklist/internal/tasklist/service"
	"github.com/opentally/tasklist/pkg/httpx"
	"github.com/opentally/tasklist/pkg/slogx"
)

type TasksHandler struct {
	TaskService *service.TaskService
}

type taskCreateRequest struct {
	Text string `json:"text"`
}

type taskUpdateRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

type taskListResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := identityFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req taskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	task, err := h.TaskService.Create(ctx, user.ID, req.Text)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, task)
}

func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := identityFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	tasks, err := h.TaskService.List(ctx, user.ID)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	httpx.WriteJSON(w, http.StatusOK, taskListResponse{Tasks: tasks})
}

func (h *TasksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := identityFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	task, err := h.TaskService.Get(ctx, user.ID, r.PathValue("id"))
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, task)
}

func (h *TasksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := identityFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	task, err := h.TaskService.Update(ctx, user.ID, r.PathValue("id"), service.TaskPatch{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, task)
}

func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := identityFromContext(ctx)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.TaskService.Delete(ctx, user.ID, r.PathValue("id")); err != nil {
		writeTaskError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "task failed validation")
	case errors.Is(err, service.ErrTaskNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "task does not exist")
	case errors.Is(err, service.ErrStoreUnavailable):
		log.Error("task store fault", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "try again later")
	default:
		log.Error("task request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "task request failed")
	}
}
