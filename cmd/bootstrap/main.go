// Command bootstrap registers a server directly against the database,
// for environments where the public registration endpoint is not reachable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/handler/dto"
	"github.com/urlshortcut/urlshortcut/internal/model"
	"github.com/urlshortcut/urlshortcut/internal/repository"
	"github.com/urlshortcut/urlshortcut/internal/service"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		host        = flag.String("host", "", "Host the server will own, e.g. example.com")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "Server password (8-256 letters or digits)")
		description = flag.String("description", "", "Optional description")
		migrate     = flag.Bool("migrate", false, "Apply migrations before registering")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fail("DATABASE_URL is required")
	}

	req := dto.RegisterServerRequest{Host: *host, Password: *password}
	if *description != "" {
		req.Description = description
	}
	if err := dto.NewValidator().Validate(req); err != nil {
		fail(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *migrate {
		if err := repository.Migrate(ctx, *databaseURL); err != nil {
			fail("migrate:", err)
		}
	}

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fail("connect database:", err)
	}
	defer repo.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	owners := service.NewOwnerService(repo, repo, auth.NewArgon2Hasher(auth.DefaultArgon2Params), nil, logger, nil)

	owner, err := owners.Register(ctx, service.RegisterOwnerInput{
		Host:        req.Host,
		Password:    req.Password,
		Description: req.Description,
	})
	if err != nil {
		fail("register server:", err)
	}

	if err := write(os.Stdout, *format, owner); err != nil {
		fail(err.Error())
	}
}

func write(w io.Writer, format string, owner *model.Owner) error {
	switch strings.ToLower(format) {
	case "plain":
		_, err := fmt.Fprintln(w, owner.ID)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(owner)
	default:
		return fmt.Errorf("invalid format %q; use plain or json", format)
	}
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
