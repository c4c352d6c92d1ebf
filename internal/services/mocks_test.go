package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/domcom/access-service/internal/models"
	"github.com/domcom/access-service/internal/repositories"
)

// mockRepository is an in-memory repositories.Repository for service tests.
type mockRepository struct {
	users  *mockUserRepo
	roles  *mockRoleRepo
	blocks *mockBlockRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  &mockUserRepo{users: make(map[string]*models.User)},
		roles:  &mockRoleRepo{roles: make(map[string][]models.Role)},
		blocks: &mockBlockRepo{},
	}
}

func (m *mockRepository) User() repositories.UserRepository   { return m.users }
func (m *mockRepository) Role() repositories.RoleRepository   { return m.roles }
func (m *mockRepository) Block() repositories.BlockRepository { return m.blocks }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

func (m *mockRepository) addUser(id string, roles ...models.Role) {
	m.users.users[id] = &models.User{ID: id, FullName: "User " + id, Email: id + "@portal.local"}
	if len(roles) > 0 {
		m.roles.roles[id] = roles
	}
}

// ===== users =====

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		cloned := *u
		return &cloned, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		cloned := *u
		out = append(out, &cloned)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

// ===== roles =====

type mockRoleRepo struct {
	mu           sync.Mutex
	roles        map[string][]models.Role
	replaceCalls int
}

func (m *mockRoleRepo) GetRoles(ctx context.Context, userID string) ([]models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Role{}, m.roles[userID]...), nil
}

func (m *mockRoleRepo) GetRolesBatch(ctx context.Context, userIDs []string) (map[string][]models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]models.Role, len(userIDs))
	for _, id := range userIDs {
		if roles, ok := m.roles[id]; ok {
			out[id] = append([]models.Role{}, roles...)
		}
	}
	return out, nil
}

func (m *mockRoleRepo) Replace(ctx context.Context, userID string, roles []models.Role, grantedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roles[userID] = append([]models.Role{}, roles...)
	m.replaceCalls++
	return nil
}

// ===== blocks =====

type mockBlockRepo struct {
	mu      sync.Mutex
	nextID  uint
	records []*models.UserBlock
}

func (m *mockBlockRepo) GetActive(ctx context.Context, userID string) (*models.UserBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.records {
		if b.UserID == userID && b.ReleasedAt == nil {
			cloned := *b
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBlockRepo) Create(ctx context.Context, block *models.UserBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.records {
		if b.UserID == block.UserID && b.ReleasedAt == nil {
			return gorm.ErrDuplicatedKey
		}
	}

	m.nextID++
	block.ID = m.nextID
	stored := *block
	m.records = append(m.records, &stored)
	return nil
}

func (m *mockBlockRepo) Release(ctx context.Context, userID, releasedBy, reason string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.records {
		if b.UserID == userID && b.ReleasedAt == nil {
			released := at
			b.ReleasedAt = &released
			b.ReleasedBy = &releasedBy
			b.ReleaseReason = &reason
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockBlockRepo) History(ctx context.Context, userID string) ([]*models.UserBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.UserBlock
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			cloned := *m.records[i]
			out = append(out, &cloned)
		}
	}
	return out, nil
}
