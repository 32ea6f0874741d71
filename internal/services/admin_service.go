package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/BradenHooton/revue/internal/cache"
	"github.com/BradenHooton/revue/internal/models"
	"github.com/shirou/gopsutil/v3/process"
)

const (
	dashboardCacheKey = "admin:dashboard"
	recentUsersLimit  = 5
)

// AdminUserRepository is the subset of UserRepository methods needed by AdminService.
type AdminUserRepository interface {
	Stats(ctx context.Context) (*models.UserStats, error)
	List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error)
}

// DatabaseInspector reports on the backing store.
type DatabaseInspector interface {
	HealthCheck(ctx context.Context) error
	SchemaStats(ctx context.Context) (tables, indexes int, err error)
}

// RecentUser is a dashboard row for a recently created account.
type RecentUser struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type SystemHealth struct {
	Database  string      `json:"database"`
	AIService string      `json:"aiService"`
	Uptime    float64     `json:"uptime"`
	Memory    MemoryUsage `json:"memory"`
	Timestamp time.Time   `json:"timestamp"`
}

// MemoryUsage is reported in bytes.
type MemoryUsage struct {
	RSS       uint64 `json:"rss"`
	HeapAlloc uint64 `json:"heapAlloc"`
	HeapSys   uint64 `json:"heapSys"`
	Sys       uint64 `json:"sys"`
}

// CPUUsage is cumulative process CPU time in microseconds.
type CPUUsage struct {
	User   int64   `json:"user"`
	System int64   `json:"system"`
	Pct    float64 `json:"percent"`
}

// DashboardStats is the admin dashboard payload.
type DashboardStats struct {
	models.UserStats
	RecentUsers  []RecentUser `json:"recentUsers"`
	SystemHealth SystemHealth `json:"systemHealth"`
}

type SystemMetrics struct {
	System struct {
		Uptime       float64     `json:"uptime"`
		Memory       MemoryUsage `json:"memory"`
		CPU          CPUUsage    `json:"cpu"`
		Platform     string      `json:"platform"`
		Arch         string      `json:"arch"`
		GoVersion    string      `json:"goVersion"`
		NumGoroutine int         `json:"numGoroutine"`
		Timestamp    time.Time   `json:"timestamp"`
	} `json:"system"`
	Database struct {
		Status  string `json:"status"`
		Tables  int    `json:"tables"`
		Indexes int    `json:"indexes"`
	} `json:"database"`
	Application struct {
		Version     string `json:"version"`
		Environment string `json:"environment"`
		Port        string `json:"port"`
	} `json:"application"`
}

// AdminServiceOptions carries the static facts the dashboard reports.
type AdminServiceOptions struct {
	StatsTTL     time.Duration
	AIConfigured bool
	Version      string
	Environment  string
	Port         string
}

// dashboardUsers is the cached part of the dashboard; health is always live.
type dashboardUsers struct {
	Stats  models.UserStats `json:"stats"`
	Recent []RecentUser     `json:"recent"`
}

// AdminService aggregates data for admin dashboard endpoints.
type AdminService struct {
	users   AdminUserRepository
	db      DatabaseInspector
	cache   cache.Cache
	opts    AdminServiceOptions
	started time.Time
	now     func() time.Time
	process func(ctx context.Context) (rss uint64, cpu CPUUsage)
	logger  *slog.Logger
}

// NewAdminService creates a new AdminService. A nil cache disables caching.
func NewAdminService(users AdminUserRepository, db DatabaseInspector, c cache.Cache, opts AdminServiceOptions, logger *slog.Logger) *AdminService {
	if c == nil {
		c = cache.Noop{}
	}
	return &AdminService{
		users:   users,
		db:      db,
		cache:   c,
		opts:    opts,
		started: time.Now(),
		now:     time.Now,
		process: processUsage,
		logger:  logger,
	}
}

// InvalidateStats drops the cached dashboard counts.
func (s *AdminService) InvalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard: failed to invalidate cache", slog.Any("error", err))
	}
}

// RefreshStats reloads the dashboard counts into the cache and returns them.
func (s *AdminService) RefreshStats(ctx context.Context) (*models.UserStats, error) {
	s.InvalidateStats(ctx)
	users, err := s.dashboardUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &users.Stats, nil
}

// GetDashboardStats returns directory counts, the newest accounts and a
// health summary.
func (s *AdminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	users, err := s.dashboardUsers(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		UserStats:    users.Stats,
		RecentUsers:  users.Recent,
		SystemHealth: s.health(ctx),
	}, nil
}

func (s *AdminService) dashboardUsers(ctx context.Context) (*dashboardUsers, error) {
	var cached dashboardUsers
	hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
	if err != nil {
		s.logger.Warn("dashboard: cache read failed", slog.Any("error", err))
	}
	if hit {
		return &cached, nil
	}

	stats, err := s.users.Stats(ctx)
	if err != nil {
		s.logger.Error("dashboard: failed to count users", slog.Any("error", err))
		return nil, err
	}

	recent, err := s.users.List(ctx, models.UserFilter{}, recentUsersLimit, 0)
	if err != nil {
		s.logger.Error("dashboard: failed to fetch recent users", slog.Any("error", err))
		return nil, err
	}

	out := &dashboardUsers{Stats: *stats, Recent: make([]RecentUser, 0, len(recent))}
	for _, u := range recent {
		out.Recent = append(out.Recent, RecentUser{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			LastLogin: u.LastLogin,
		})
	}

	if s.opts.StatsTTL > 0 {
		if err := s.cache.Set(ctx, dashboardCacheKey, out, s.opts.StatsTTL); err != nil {
			s.logger.Warn("dashboard: cache write failed", slog.Any("error", err))
		}
	}
	return out, nil
}

func (s *AdminService) health(ctx context.Context) SystemHealth {
	return SystemHealth{
		Database:  s.databaseStatus(ctx),
		AIService: s.aiStatus(),
		Uptime:    s.uptime(),
		Memory:    s.memory(ctx),
		Timestamp: s.now().UTC(),
	}
}

// GetSystemMetrics reports process, database and application facts.
func (s *AdminService) GetSystemMetrics(ctx context.Context) (*SystemMetrics, error) {
	m := &SystemMetrics{}

	_, cpu := s.process(ctx)
	m.System.Uptime = s.uptime()
	m.System.Memory = s.memory(ctx)
	m.System.CPU = cpu
	m.System.Platform = runtime.GOOS
	m.System.Arch = runtime.GOARCH
	m.System.GoVersion = runtime.Version()
	m.System.NumGoroutine = runtime.NumGoroutine()
	m.System.Timestamp = s.now().UTC()

	m.Database.Status = s.databaseStatus(ctx)
	if m.Database.Status == "connected" {
		tables, indexes, err := s.db.SchemaStats(ctx)
		if err != nil {
			s.logger.Warn("metrics: failed to read schema stats", slog.Any("error", err))
		} else {
			m.Database.Tables = tables
			m.Database.Indexes = indexes
		}
	}

	m.Application.Version = s.opts.Version
	m.Application.Environment = s.opts.Environment
	m.Application.Port = s.opts.Port

	return m, nil
}

func (s *AdminService) databaseStatus(ctx context.Context) string {
	if s.db == nil {
		return "disconnected"
	}
	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warn("database health check failed", slog.Any("error", err))
		return "disconnected"
	}
	return "connected"
}

func (s *AdminService) aiStatus() string {
	if s.opts.AIConfigured {
		return "configured"
	}
	return "not configured"
}

func (s *AdminService) uptime() float64 {
	return s.now().Sub(s.started).Seconds()
}

func (s *AdminService) memory(ctx context.Context) MemoryUsage {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	rss, _ := s.process(ctx)
	return MemoryUsage{
		RSS:       rss,
		HeapAlloc: ms.HeapAlloc,
		HeapSys:   ms.HeapSys,
		Sys:       ms.Sys,
	}
}

// processUsage samples this process through gopsutil. Failures yield zeros.
func processUsage(ctx context.Context) (uint64, CPUUsage) {
	var cpu CPUUsage
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0, cpu
	}

	var rss uint64
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		rss = mi.RSS
	}
	if t, err := p.TimesWithContext(ctx); err == nil && t != nil {
		cpu.User = int64(t.User * 1e6)
		cpu.System = int64(t.System * 1e6)
	}
	if pct, err := p.CPUPercentWithContext(ctx); err == nil {
		cpu.Pct = pct
	}
	return rss, cpu
}
