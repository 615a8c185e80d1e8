package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"busyness/internal/models/task"
	"busyness/internal/models/user"
	repo "busyness/internal/repository"

	"github.com/google/uuid"
)

// Storage keeps copies of tasks, logs and users in maps. Callers never share
// pointers with the store, mirroring a database round trip.
type Storage struct {
	mtx   *sync.RWMutex
	tasks map[uuid.UUID]*task.Task
	ids   []uuid.UUID
	logs  map[uuid.UUID][]*task.Log
	users map[string]*user.User
}

func NewStorage() *Storage {
	return &Storage{
		mtx:   &sync.RWMutex{},
		tasks: make(map[uuid.UUID]*task.Task),
		ids:   []uuid.UUID{},
		logs:  make(map[uuid.UUID][]*task.Log),
		users: make(map[string]*user.User),
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[taskToCreate.ID]; ok {
		return repo.ErrAlreadyExists
	}
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now().UTC()
	}
	taskToCreate.Version = 1

	s.tasks[taskToCreate.ID] = copyTask(taskToCreate)
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.update(taskToUpdate)
}

func (s *Storage) update(taskToUpdate *task.Task) error {
	existing, ok := s.tasks[taskToUpdate.ID]
	if !ok || existing.UserID != taskToUpdate.UserID {
		return repo.ErrNotFound
	}
	if existing.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	taskToUpdate.Version++
	s.tasks[taskToUpdate.ID] = copyTask(taskToUpdate)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, userID, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.tasks[id]
	if !ok || taskToGet.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return copyTask(taskToGet), nil
}

func (s *Storage) GetActive(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.tasks[id]
		if t.UserID != userID || t.IsCompleted() {
			continue
		}
		res = append(res, copyTask(t))
	}
	return res, nil
}

// completed tasks, most recently completed first
func (s *Storage) GetCompleted(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.tasks[id]
		if t.UserID != userID || !t.IsCompleted() {
			continue
		}
		res = append(res, copyTask(t))
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CompletedAt.After(*res[j].CompletedAt)
	})
	return res, nil
}

func (s *Storage) Delete(ctx context.Context, userID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return repo.ErrNotFound
	}

	delete(s.tasks, id)
	delete(s.logs, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) LogActivity(ctx context.Context, taskToUpdate *task.Task, log *task.Log) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.update(taskToUpdate); err != nil {
		return err
	}

	stored := *log
	s.logs[log.TaskID] = append(s.logs[log.TaskID], &stored)
	return nil
}

// logs of a task, newest first
func (s *Storage) GetLogs(ctx context.Context, taskID uuid.UUID) ([]*task.Log, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stored := s.logs[taskID]
	res := make([]*task.Log, 0, len(stored))
	for _, l := range stored {
		cp := *l
		res = append(res, &cp)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].LoggedAt.After(res[j].LoggedAt)
	})
	return res, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := s.users[key]; ok {
		return repo.ErrAlreadyExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	stored := *u
	s.users[key] = &stored
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *u
	return &res, nil
}

func copyTask(t *task.Task) *task.Task {
	c := *t
	if t.DoingHourlyRate != nil {
		v := *t.DoingHourlyRate
		c.DoingHourlyRate = &v
	}
	if t.ImpactSetTo != nil {
		v := *t.ImpactSetTo
		c.ImpactSetTo = &v
	}
	if t.Deadline != nil {
		v := *t.Deadline
		c.Deadline = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}
