package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/revue/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc                 func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc                func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc             func(ctx context.Context, email string) (*models.User, error)
	GetWithPasswordByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetWithPasswordByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	ListFunc                   func(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error)
	CountFunc                  func(ctx context.Context, filter models.UserFilter) (int64, error)
	StatsFunc                  func(ctx context.Context) (*models.UserStats, error)
	UpdateFunc                 func(ctx context.Context, id string, u models.UserUpdate) (*models.User, error)
	BulkUpdateFunc             func(ctx context.Context, ids []string, u models.UserUpdate) (int64, error)
	DeleteFunc                 func(ctx context.Context, id string) error
	EmailTakenFunc             func(ctx context.Context, email, excludeID string) (bool, error)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetWithPasswordByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetWithPasswordByIDFunc != nil {
		return m.GetWithPasswordByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetWithPasswordByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetWithPasswordByEmailFunc != nil {
		return m.GetWithPasswordByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, filter)
	}
	return 0, nil
}

func (m *MockUserRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.UserStats{}, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, u)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) BulkUpdate(ctx context.Context, ids []string, u models.UserUpdate) (int64, error) {
	if m.BulkUpdateFunc != nil {
		return m.BulkUpdateFunc(ctx, ids, u)
	}
	return 0, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	if m.EmailTakenFunc != nil {
		return m.EmailTakenFunc(ctx, email, excludeID)
	}
	return false, nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateTokenFunc func(userID string) (string, error)
}

func (m *MockTokenIssuer) GenerateToken(userID string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID)
	}
	return "token-" + userID, nil
}

// MockEmailService records calls and returns Err for every send.
type MockEmailService struct {
	mu              sync.Mutex
	Err             error
	Welcome         []string
	PasswordChanged []string
}

func (m *MockEmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Welcome = append(m.Welcome, email)
	return m.Err
}

func (m *MockEmailService) SendPasswordChangedEmail(ctx context.Context, email, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PasswordChanged = append(m.PasswordChanged, email)
	return m.Err
}

// MockStatsInvalidator counts invalidations.
type MockStatsInvalidator struct {
	mu    sync.Mutex
	Calls int
}

func (m *MockStatsInvalidator) InvalidateStats(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
}

// MockReviewer implements Reviewer for testing
type MockReviewer struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockReviewer) Generate(ctx context.Context, prompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "looks good", nil
}

// MockDatabaseInspector implements DatabaseInspector for testing
type MockDatabaseInspector struct {
	HealthErr error
	Tables    int
	Indexes   int
	StatsErr  error
}

func (m *MockDatabaseInspector) HealthCheck(ctx context.Context) error {
	return m.HealthErr
}

func (m *MockDatabaseInspector) SchemaStats(ctx context.Context) (int, int, error) {
	return m.Tables, m.Indexes, m.StatsErr
}

// NewTestUser creates an active regular user.
func NewTestUser(id, email, name string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithPassword creates a test user with a password hash
func NewTestUserWithPassword(id, email, name, passwordHash string) *models.User {
	user := NewTestUser(id, email, name)
	user.PasswordHash = passwordHash
	return user
}

func NewTestAdmin(id, email, name string) *models.User {
	user := NewTestUser(id, email, name)
	user.Role = models.RoleAdmin
	return user
}
