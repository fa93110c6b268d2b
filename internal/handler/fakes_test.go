package handler

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/robot-management/internal/model"
	"github.com/iliyamo/robot-management/internal/repository"
	"github.com/iliyamo/robot-management/internal/utils"
)

type memRobots struct {
	mu         sync.Mutex
	rows       map[uint64]model.Robot
	nextID     uint64
	referenced map[string]bool
}

func newMemRobots(seed ...model.Robot) *memRobots {
	m := &memRobots{rows: map[uint64]model.Robot{}, referenced: map[string]bool{}}
	for _, r := range seed {
		_ = m.Create(context.Background(), &r)
	}
	return m
}

func (m *memRobots) Create(_ context.Context, r *model.Robot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Name == r.Name {
			return repository.ErrConflict
		}
	}
	m.nextID++
	r.ID = m.nextID
	m.rows[r.ID] = *r
	return nil
}

func (m *memRobots) GetByName(_ context.Context, name string) (model.Robot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Name == name {
			return row, nil
		}
	}
	return model.Robot{}, repository.ErrNotFound
}

func (m *memRobots) GetByID(_ context.Context, id uint64) (model.Robot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return model.Robot{}, repository.ErrNotFound
	}
	return row, nil
}

func (m *memRobots) TypeExists(_ context.Context, typ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRobots) List(_ context.Context) ([]model.Robot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Robot, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRobots) Update(_ context.Context, r model.Robot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, row := range m.rows {
		if id != r.ID && row.Name == r.Name {
			return repository.ErrConflict
		}
	}
	m.rows[r.ID] = r
	return nil
}

func (m *memRobots) DeleteByName(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.referenced[name] {
		return repository.ErrConflict
	}
	for id, row := range m.rows {
		if row.Name == name {
			delete(m.rows, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memTasks struct {
	mu         sync.Mutex
	rows       map[uint64]model.Task
	nextID     uint64
	referenced map[string]bool
}

func newMemTasks(seed ...model.Task) *memTasks {
	m := &memTasks{rows: map[uint64]model.Task{}, referenced: map[string]bool{}}
	for _, t := range seed {
		_ = m.Create(context.Background(), &t)
	}
	return m
}

func (m *memTasks) Create(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Name == t.Name {
			return repository.ErrConflict
		}
	}
	m.nextID++
	t.ID = m.nextID
	m.rows[t.ID] = *t
	return nil
}

func (m *memTasks) GetByName(_ context.Context, name string) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Name == name {
			return row, nil
		}
	}
	return model.Task{}, repository.ErrNotFound
}

func (m *memTasks) GetByID(_ context.Context, id uint64) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	return row, nil
}

func (m *memTasks) TypeExists(_ context.Context, typ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Type == typ {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTasks) List(_ context.Context) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Task, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTasks) Update(_ context.Context, t model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, row := range m.rows {
		if id != t.ID && row.Name == t.Name {
			return repository.ErrConflict
		}
	}
	m.rows[t.ID] = t
	return nil
}

func (m *memTasks) DeleteByName(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.referenced[name] {
		return repository.ErrConflict
	}
	for id, row := range m.rows {
		if row.Name == name {
			delete(m.rows, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

// memExecutions joins against the robot and task fakes like the SQL view.
type memExecutions struct {
	mu     sync.Mutex
	rows   []model.TaskExecution
	robots *memRobots
	tasks  *memTasks
}

func (m *memExecutions) Create(ctx context.Context, te *model.TaskExecution) error {
	if _, err := m.robots.GetByID(ctx, te.RobotID); err != nil {
		return err
	}
	if _, err := m.tasks.GetByID(ctx, te.TaskID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	te.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *te)
	return nil
}

func (m *memExecutions) view(ctx context.Context, te model.TaskExecution) model.TaskExecutionView {
	r, _ := m.robots.GetByID(ctx, te.RobotID)
	t, _ := m.tasks.GetByID(ctx, te.TaskID)
	return model.TaskExecutionView{TaskExecution: te, RobotName: r.Name, RobotType: r.Type, TaskName: t.Name, TaskType: t.Type}
}

func (m *memExecutions) GetView(ctx context.Context, id uint64) (model.TaskExecutionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, te := range m.rows {
		if te.ID == id {
			return m.view(ctx, te), nil
		}
	}
	return model.TaskExecutionView{}, repository.ErrNotFound
}

func (m *memExecutions) ListViews(ctx context.Context) ([]model.TaskExecutionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TaskExecutionView, 0, len(m.rows))
	for _, te := range m.rows {
		out = append(out, m.view(ctx, te))
	}
	return out, nil
}

type memUsers struct{ rows []model.User }

func (m *memUsers) add(id uint64, email, password string, admin bool) model.User {
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		panic(err)
	}
	u := model.User{ID: id, Email: email, PasswordHash: hash, Admin: admin}
	m.rows = append(m.rows, u)
	return u
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = repository.NormalizeEmail(email)
	for _, u := range m.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range m.rows {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type memBlacklist struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func (m *memBlacklist) Blacklist(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = true
	return nil
}

func (m *memBlacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[token], nil
}
