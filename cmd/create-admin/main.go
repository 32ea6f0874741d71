// Command create-admin registers an administrator account, or reports that
// the email is already taken.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/BradenHooton/revue/internal/config"
	"github.com/BradenHooton/revue/internal/database"
	"github.com/BradenHooton/revue/internal/models"
	"github.com/BradenHooton/revue/internal/repositories"
	"github.com/BradenHooton/revue/internal/services"
	pkglogger "github.com/BradenHooton/revue/pkg/logger"
)

// readPassword is swapped in tests.
var readPassword = term.ReadPassword

type options struct {
	Name     string
	Email    string
	Password string
}

// bootstrapper is the part of UserService this command drives.
type bootstrapper interface {
	BootstrapAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	opts, err := parseArgs(os.Args[1:], cfg.Admin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.Password == "" {
		if opts.Password, err = promptPassword(os.Stdout, int(os.Stdin.Fd())); err != nil {
			fmt.Fprintln(os.Stderr, "password:", err)
			os.Exit(1)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "migrations:", err)
		os.Exit(1)
	}

	userService := services.NewUserService(repositories.NewUserRepository(db.Pool), nil, pkglogger.NewAuditLogger(logger), logger)
	if err := run(ctx, userService, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseArgs reads flags, falling back to the ADMIN_* settings.
func parseArgs(args []string, defaults config.AdminConfig) (options, error) {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	opts := options{}
	fs.StringVar(&opts.Name, "name", defaults.Name, "display name")
	fs.StringVar(&opts.Email, "email", defaults.Email, "login email")
	fs.StringVar(&opts.Password, "password", defaults.Password, "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return options{}, errors.New("an email is required (-email or ADMIN_EMAIL)")
	}
	if strings.TrimSpace(opts.Name) == "" {
		opts.Name = "Admin User"
	}
	return opts, nil
}

func promptPassword(w io.Writer, fd int) (string, error) {
	fmt.Fprint(w, "Admin password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func run(ctx context.Context, svc bootstrapper, opts options, out io.Writer) error {
	user, created, err := svc.BootstrapAdmin(ctx, opts.Name, opts.Email, opts.Password)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("invalid input: %s", ve.Message)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	if !created {
		fmt.Fprintf(out, "User %s already exists (role %s); nothing changed.\n", user.Email, user.Role)
		return nil
	}
	fmt.Fprintf(out, "Admin user created: %s (%s)\n", user.Email, user.ID)
	return nil
}
