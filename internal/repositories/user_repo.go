package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/BradenHooton/revue/internal/database"
	"github.com/BradenHooton/revue/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	userColumns             = `id, name, email, role, is_active, last_login, created_at, updated_at`
	userColumnsWithPassword = userColumns + `, password_hash`
)

type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(scanner rowScanner, withPassword bool) (*models.User, error) {
	var user models.User
	dest := []any{
		&user.ID, &user.Name, &user.Email, &user.Role,
		&user.IsActive, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	}
	if withPassword {
		dest = append(dest, &user.PasswordHash)
	}

	if err := scanner.Scan(dest...); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return users, nil
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// whereClause renders f as a WHERE clause. Placeholders continue from args.
func whereClause(f models.UserFilter, args []any) (string, []any) {
	conds := make([]string, 0, 3)

	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + userColumns

	created, err := scanUserRow(r.db.QueryRow(ctx, query,
		uuid.New().String(), user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive,
	), false)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.QueryRow(ctx, query, id), false)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUserRow(r.db.QueryRow(ctx, query, email), false)
}

// GetWithPasswordByID includes the password hash. Only for credential checks.
func (r *UserRepository) GetWithPasswordByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumnsWithPassword + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.QueryRow(ctx, query, id), true)
}

// GetWithPasswordByEmail includes the password hash. Only for credential checks.
func (r *UserRepository) GetWithPasswordByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumnsWithPassword + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUserRow(r.db.QueryRow(ctx, query, email), true)
}

// List returns one page of users matching filter, newest first.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error) {
	where, args := whereClause(filter, nil)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return scanUserRows(rows)
}

func (r *UserRepository) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	where, args := whereClause(filter, nil)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// Stats returns directory-wide counts in a single scan.
func (r *UserRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE role = 'admin'),
			COUNT(*) FILTER (WHERE role = 'user')
		FROM users
	`

	var s models.UserStats
	if err := r.db.QueryRow(ctx, query).Scan(&s.TotalUsers, &s.ActiveUsers, &s.AdminUsers, &s.RegularUsers); err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return &s, nil
}

// setClause renders the non-nil fields of u as assignments.
func setClause(u models.UserUpdate, args []any) ([]string, []any) {
	sets := make([]string, 0, 6)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.Role != nil {
		add("role", *u.Role)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if u.PasswordHash != nil {
		add("password_hash", *u.PasswordHash)
	}
	if u.LastLogin != nil {
		add("last_login", *u.LastLogin)
	}
	return sets, args
}

// Update writes the non-nil fields of u and returns the stored record.
func (r *UserRepository) Update(ctx context.Context, id string, u models.UserUpdate) (*models.User, error) {
	if u.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets, args := setClause(u, nil)
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	return scanUserRow(r.db.QueryRow(ctx, query, args...), false)
}

// BulkUpdate applies u to every listed user in one statement and returns how
// many rows actually changed. Rows already holding the target values are not
// counted.
func (r *UserRepository) BulkUpdate(ctx context.Context, ids []string, u models.UserUpdate) (int64, error) {
	if len(ids) == 0 || u.IsEmpty() {
		return 0, nil
	}

	sets, args := setClause(u, nil)
	changed := make([]string, len(sets))
	for i, s := range sets {
		col, placeholder, _ := strings.Cut(s, " = ")
		changed[i] = col + " IS DISTINCT FROM " + placeholder
	}
	args = append(args, ids)

	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE id = ANY($%d::uuid[]) AND (%s)`,
		strings.Join(sets, ", "), len(args), strings.Join(changed, " OR "))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// EmailTaken reports whether another user holds email. excludeID may be empty.
func (r *UserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`
	args := []any{email}
	if excludeID != "" {
		query = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`
		args = append(args, excludeID)
	}

	var taken bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}
