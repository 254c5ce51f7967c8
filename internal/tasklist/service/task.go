package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opentally/tasklist/internal/tasklist/domain"
	"github.com/opentally/tasklist/internal/tasklist/store"
	"github.com/opentally/tasklist/pkg/idx"
)

// ErrTaskNotFound reports a task id that does not exist for the caller.
var ErrTaskNotFound = errors.New("service: task not found")

// TaskService is plain request-to-record CRUD over the caller's own tasks.
type TaskService struct {
	Store store.Store
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Text      *string
	Completed *bool
}

func (s *TaskService) Create(ctx context.Context, creatorID, text string) (domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Task{}, fmt.Errorf("%w: task text must not be empty", ErrValidation)
	}

	now := time.Now().UTC()
	task := domain.Task{
		ID:        idx.New().String(),
		CreatorID: creatorID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Tasks().CreateTask(ctx, task); err != nil {
		return domain.Task{}, storeFault(err)
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, creatorID, id string) (domain.Task, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, creatorID, id)
	if err != nil {
		return domain.Task{}, mapTaskErr(err)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, creatorID string) ([]domain.Task, error) {
	tasks, err := s.Store.Tasks().ListTasksByCreator(ctx, creatorID)
	if err != nil {
		return nil, storeFault(err)
	}
	return tasks, nil
}

// Update applies a patch and re-derives completed_at from the resulting
// completed flag: set on the transition to done, cleared whenever the task
// ends up not done. The invariant holds on every update, not only the one
// that flipped the flag.
func (s *TaskService) Update(ctx context.Context, creatorID, id string, patch TaskPatch) (domain.Task, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, creatorID, id)
	if err != nil {
		return domain.Task{}, mapTaskErr(err)
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return domain.Task{}, fmt.Errorf("%w: task text must not be empty", ErrValidation)
		}
		task.Text = text
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	now := time.Now().UTC()
	switch {
	case task.Completed && task.CompletedAt == nil:
		task.CompletedAt = &now
	case !task.Completed:
		task.CompletedAt = nil
	}
	task.UpdatedAt = now

	if err := s.Store.Tasks().UpdateTask(ctx, task); err != nil {
		return domain.Task{}, mapTaskErr(err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, creatorID, id string) error {
	if err := s.Store.Tasks().DeleteTask(ctx, creatorID, id); err != nil {
		return mapTaskErr(err)
	}
	return nil
}

func mapTaskErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return storeFault(err)
}
