package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/revue/internal/models"
	pkgauth "github.com/BradenHooton/revue/pkg/auth"
	pkglogger "github.com/BradenHooton/revue/pkg/logger"
)

const (
	adminID = "11111111-1111-4111-8111-111111111111"
	userID  = "22222222-2222-4222-8222-222222222222"
	otherID = "33333333-3333-4333-8333-333333333333"
)

func init() {
	pkgauth.BcryptCost = 4
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUserService(repo *MockUserRepository) (*UserService, *MockStatsInvalidator) {
	stats := &MockStatsInvalidator{}
	logger := testLogger()
	return NewUserService(repo, stats, pkglogger.NewAuditLogger(logger), logger), stats
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestUserService_GetUser_Success(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return NewTestUser(id, "user@example.com", "Test User"), nil
		},
	}
	svc, _ := newTestUserService(repo)

	result, err := svc.GetUser(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, userID, result.ID)
	assert.Equal(t, "user@example.com", result.Email)
}

func TestUserService_GetUser_CanonicalizesID(t *testing.T) {
	var got string
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			got = id
			return NewTestUser(id, "user@example.com", "Test User"), nil
		},
	}
	svc, _ := newTestUserService(repo)

	_, err := svc.GetUser(context.Background(), strings.ToUpper(userID))

	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestUserService_GetUser_MalformedID(t *testing.T) {
	called := false
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			called = true
			return nil, nil
		},
	}
	svc, _ := newTestUserService(repo)

	_, err := svc.GetUser(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, called)
}

func TestUserService_GetUser_DatabaseError(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc, _ := newTestUserService(repo)

	_, err := svc.GetUser(context.Background(), userID)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestUserService_ListUsers_Defaults(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &MockUserRepository{
		CountFunc: func(ctx context.Context, filter models.UserFilter) (int64, error) {
			return 25, nil
		},
		ListFunc: func(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.User{NewTestUser(userID, "a@example.com", "A")}, nil
		},
	}
	svc, _ := newTestUserService(repo)

	page, err := svc.ListUsers(context.Background(), models.UserFilter{}, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, gotLimit)
	assert.Equal(t, 0, gotOffset)
	assert.Len(t, page.Users, 1)
	assert.Equal(t, models.Pagination{
		CurrentPage: 1, TotalPages: 3, TotalUsers: 25, HasNextPage: true, HasPrevPage: false,
	}, page.Pagination)
}

func TestUserService_ListUsers_PageAndLimit(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantLimit  int
		wantOffset int
	}{
		{"second page", 2, 10, 10, 10},
		{"limit capped", 1, 500, MaxLimit, 0},
		{"negative page", -3, 5, 5, 0},
		{"third page of 20", 3, 20, 20, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			repo := &MockUserRepository{
				ListFunc: func(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error) {
					gotLimit, gotOffset = limit, offset
					return nil, nil
				},
			}
			svc, _ := newTestUserService(repo)

			_, err := svc.ListUsers(context.Background(), models.UserFilter{}, tt.page, tt.limit)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.wantOffset, gotOffset)
		})
	}
}

func TestUserService_ListUsers_PassesFilter(t *testing.T) {
	var counted, listed models.UserFilter
	repo := &MockUserRepository{
		CountFunc: func(ctx context.Context, filter models.UserFilter) (int64, error) {
			counted = filter
			return 0, nil
		},
		ListFunc: func(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error) {
			listed = filter
			return nil, nil
		},
	}
	svc, _ := newTestUserService(repo)

	filter := models.UserFilter{Search: "  jo  ", Role: models.RoleAdmin, IsActive: boolPtr(false)}
	page, err := svc.ListUsers(context.Background(), filter, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, "jo", counted.Search)
	assert.Equal(t, counted, listed)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNextPage)
}

func TestUserService_ListUsers_CountError(t *testing.T) {
	repo := &MockUserRepository{
		CountFunc: func(ctx context.Context, filter models.UserFilter) (int64, error) {
			return 0, errors.New("boom")
		},
	}
	svc, _ := newTestUserService(repo)

	_, err := svc.ListUsers(context.Background(), models.UserFilter{}, 1, 10)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestUserService_UpdateUser_Success(t *testing.T) {
	var got models.UserUpdate
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return NewTestUser(id, "old@example.com", "Old"), nil
		},
		UpdateFunc: func(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
			got = u
			user := NewTestUser(id, *u.Email, *u.Name)
			user.Role = *u.Role
			return user, nil
		},
	}
	svc, stats := newTestUserService(repo)

	updated, err := svc.UpdateUser(context.Background(), adminID, userID, models.UserUpdate{
		Name:  strPtr("  New Name "),
		Email: strPtr("New@Example.com"),
		Role:  strPtr(models.RoleAdmin),
	})

	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "new@example.com", *got.Email)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, 1, stats.Calls)
}

func TestUserService_UpdateUser_IgnoresNonWhitelistedFields(t *testing.T) {
	var got models.UserUpdate
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return NewTestUser(id, "a@example.com", "A"), nil
		},
		UpdateFunc: func(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
			got = u
			return NewTestUser(id, "a@example.com", "A"), nil
		},
	}
	svc, _ := newTestUserService(repo)

	_, err := svc.UpdateUser(context.Background(), adminID, userID, models.UserUpdate{
		Name:         strPtr("A"),
		PasswordHash: strPtr("plaintext"),
	})

	require.NoError(t, err)
	assert.Nil(t, got.PasswordHash)
	assert.Nil(t, got.LastLogin)
}

func TestUserService_UpdateUser_Validation(t *testing.T) {
	tests := []struct {
		name    string
		fields  models.UserUpdate
		wantMsg string
	}{
		{"blank name", models.UserUpdate{Name: strPtr("   ")}, "Name cannot be empty"},
		{"bad role", models.UserUpdate{Role: strPtr("superuser")}, "Valid role (user/admin) is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestUserService(&MockUserRepository{})

			_, err := svc.UpdateUser(context.Background(), adminID, userID, tt.fields)

			require.ErrorIs(t, err, models.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	svc, _ := newTestUserService(&MockUserRepository{})

	_, err := svc.UpdateUser(context.Background(), adminID, userID, models.UserUpdate{Name: strPtr("X")})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_UpdateUser_SelfDeactivation(t *testing.T) {
	updateCalled := false
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return NewTestAdmin(id, "admin@example.com", "Admin"), nil
		},
		UpdateFunc: func(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
			updateCalled = true
			return nil, nil
		},
	}
	svc, _ := newTestUserService(repo)

	_, err := svc.UpdateUser(context.Background(), adminID, strings.ToUpper(adminID), models.UserUpdate{IsActive: boolPtr(false)})

	assert.ErrorIs(t, err, models.ErrSelfModification)
	assert.False(t, updateCalled)
}

func TestUserService_UpdateUser_SelfRenameAllowed(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return NewTestAdmin(id, "admin@example.com", "Admin"), nil
		},
		UpdateFunc: func(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
			return NewTestAdmin(id, "admin@example.com", *u.Name), nil
		},
	}
	svc, _ := newTestUserService(repo)

	updated, err := svc.UpdateUser(context.Background(), adminID, adminID, models.UserUpdate{Name: strPtr("Boss"), IsActive: boolPtr(true)})

	require.NoError(t, err)
	assert.Equal(t, "Boss", updated.Name)
}

func TestUserService_UpdateUser_EmailConflict(t *testing.T) {
	var excluded string
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return NewTestUser(id, "a@example.com", "A"), nil
		},
		EmailTakenFunc: func(ctx context.Context, email, excludeID string) (bool, error) {
			excluded = excludeID
			return true, nil
		},
	}
	svc, stats := newTestUserService(repo)

	_, err := svc.UpdateUser(context.Background(), adminID, userID, models.UserUpdate{Email: strPtr("b@example.com")})

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, userID, excluded)
	assert.Zero(t, stats.Calls)
}

func TestUserService_UpdateUser_SameEmailSkipsConflictCheck(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return NewTestUser(id, "a@example.com", "A"), nil
		},
		EmailTakenFunc: func(ctx context.Context, email, excludeID string) (bool, error) {
			t.Fatal("EmailTaken should not be called")
			return false, nil
		},
		UpdateFunc: func(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
			return NewTestUser(id, *u.Email, "A"), nil
		},
	}
	svc, _ := newTestUserService(repo)

	_, err := svc.UpdateUser(context.Background(), adminID, userID, models.UserUpdate{Email: strPtr("A@example.com")})

	assert.NoError(t, err)
}

func TestUserService_DeleteUser_Success(t *testing.T) {
	var deleted string
	repo := &MockUserRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc, stats := newTestUserService(repo)

	err := svc.DeleteUser(context.Background(), adminID, userID)

	require.NoError(t, err)
	assert.Equal(t, userID, deleted)
	assert.Equal(t, 1, stats.Calls)
}

func TestUserService_DeleteUser_Self(t *testing.T) {
	repo := &MockUserRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			t.Fatal("Delete should not be called")
			return nil
		},
	}
	svc, _ := newTestUserService(repo)

	err := svc.DeleteUser(context.Background(), adminID, strings.ToUpper(adminID))

	assert.ErrorIs(t, err, models.ErrSelfModification)
}

func TestUserService_DeleteUser_NotFound(t *testing.T) {
	repo := &MockUserRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			return models.ErrNotFound
		},
	}
	svc, stats := newTestUserService(repo)

	err := svc.DeleteUser(context.Background(), adminID, userID)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, stats.Calls)
}

func TestUserService_BulkUpdate_ExcludesActor(t *testing.T) {
	var gotIDs []string
	var got models.UserUpdate
	repo := &MockUserRepository{
		BulkUpdateFunc: func(ctx context.Context, ids []string, u models.UserUpdate) (int64, error) {
			gotIDs, got = ids, u
			return int64(len(ids)), nil
		},
	}
	svc, stats := newTestUserService(repo)

	count, err := svc.BulkUpdate(context.Background(), adminID,
		[]string{userID, strings.ToUpper(adminID), otherID, userID, "garbage"}, BulkDeactivate, "")

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, []string{userID, otherID}, gotIDs)
	require.NotNil(t, got.IsActive)
	assert.False(t, *got.IsActive)
	assert.Equal(t, 1, stats.Calls)
}

func TestUserService_BulkUpdate_Actions(t *testing.T) {
	tests := []struct {
		name   string
		action string
		value  string
		check  func(t *testing.T, u models.UserUpdate)
	}{
		{"activate", BulkActivate, "", func(t *testing.T, u models.UserUpdate) {
			require.NotNil(t, u.IsActive)
			assert.True(t, *u.IsActive)
			assert.Nil(t, u.Role)
		}},
		{"change role", BulkChangeRole, models.RoleAdmin, func(t *testing.T, u models.UserUpdate) {
			require.NotNil(t, u.Role)
			assert.Equal(t, models.RoleAdmin, *u.Role)
			assert.Nil(t, u.IsActive)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.UserUpdate
			repo := &MockUserRepository{
				BulkUpdateFunc: func(ctx context.Context, ids []string, u models.UserUpdate) (int64, error) {
					got = u
					return 1, nil
				},
			}
			svc, _ := newTestUserService(repo)

			_, err := svc.BulkUpdate(context.Background(), adminID, []string{userID}, tt.action, tt.value)

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestUserService_BulkUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		action  string
		value   string
		wantMsg string
	}{
		{"no ids", nil, BulkActivate, "", "User IDs array is required"},
		{"unknown action", []string{userID}, "explode", "", "Invalid action"},
		{"bad role", []string{userID}, BulkChangeRole, "root", "Valid role (user/admin) is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestUserService(&MockUserRepository{})

			_, err := svc.BulkUpdate(context.Background(), adminID, tt.ids, tt.action, tt.value)

			require.ErrorIs(t, err, models.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestUserService_BulkUpdate_OnlyActor(t *testing.T) {
	repo := &MockUserRepository{
		BulkUpdateFunc: func(ctx context.Context, ids []string, u models.UserUpdate) (int64, error) {
			t.Fatal("BulkUpdate should not be called")
			return 0, nil
		},
	}
	svc, stats := newTestUserService(repo)

	count, err := svc.BulkUpdate(context.Background(), adminID, []string{adminID}, BulkDeactivate, "")

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, stats.Calls)
}

func TestUserService_BootstrapAdmin_Creates(t *testing.T) {
	var created *models.User
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			out := *user
			out.ID = adminID
			return &out, nil
		},
	}
	svc, stats := newTestUserService(repo)

	user, ok, err := svc.BootstrapAdmin(context.Background(), "Admin User", " Admin@Example.com ", "s3cure-admin-pw")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, adminID, user.ID)
	assert.Equal(t, models.RoleAdmin, created.Role)
	assert.True(t, created.IsActive)
	assert.Equal(t, "admin@example.com", created.Email)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, "s3cure-admin-pw"))
	assert.Equal(t, 1, stats.Calls)
}

func TestUserService_BootstrapAdmin_Existing(t *testing.T) {
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return NewTestAdmin(adminID, email, "Admin"), nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			t.Fatal("Create should not be called")
			return nil, nil
		},
	}
	svc, _ := newTestUserService(repo)

	user, ok, err := svc.BootstrapAdmin(context.Background(), "Admin", "admin@example.com", "s3cure-admin-pw")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, adminID, user.ID)
}

func TestUserService_BootstrapAdmin_WeakPassword(t *testing.T) {
	svc, _ := newTestUserService(&MockUserRepository{})

	_, _, err := svc.BootstrapAdmin(context.Background(), "Admin", "admin@example.com", "short")

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestHashNewPassword(t *testing.T) {
	hash, err := HashNewPassword("correct-horse-9")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-9", hash)
	assert.NoError(t, pkgauth.ComparePassword(hash, "correct-horse-9"))

	_, err = HashNewPassword("password123")
	assert.ErrorIs(t, err, models.ErrValidation)
}
