package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/advisory"
	"github.com/dmitrijs2005/cyphervault/internal/client/backup"
	"github.com/dmitrijs2005/cyphervault/internal/client/config"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/entries"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cyphervault/internal/client/services"
	"github.com/dmitrijs2005/cyphervault/internal/client/session"
	"github.com/dmitrijs2005/cyphervault/internal/client/storage"
	"github.com/dmitrijs2005/cyphervault/internal/logging"
)

const (
	backupFile = "file"
	backupS3   = "s3"
	backupURL  = "url"
)

// briefer is the part of the advisory client the app needs directly.
type briefer interface {
	GlobalBriefing(ctx context.Context) string
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	gate    *services.Gate
	vault   *services.VaultController
	advisor briefer
	backups map[string]*backup.Exporter

	httpClient *http.Client

	reader *bufio.Reader
	out    io.Writer

	briefMu  sync.Mutex
	briefing string

	closers []func() error
}

// NewApp opens the stores named by c and restores any saved session.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	var logger logging.Logger = logging.NewTextLogger(os.Stderr, c.LogLevel)
	a := &App{
		config:  c,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		backups: make(map[string]*backup.Exporter),

		httpClient: &http.Client{Timeout: time.Minute},
	}

	durable, err := a.openDurable(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	sessionDB, err := storage.OpenSQLite(ctx, c.SessionPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a.closers = append(a.closers, sessionDB.Close)

	signingKey, err := session.SigningKey(ctx, durable)
	if err != nil {
		a.Close()
		return nil, err
	}
	sessions := session.NewManager(kv.NewSQLiteRepository(sessionDB), signingKey, c.SessionTTL,
		session.WithLogger(logger.With("component", "session")))

	a.gate = services.NewGate(
		accounts.NewKVRepository(durable),
		entries.NewKVRepository(durable),
		sessions,
		services.WithLogger(logger.With("component", "gate")),
	)
	if err := a.gate.Restore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	advisor := advisory.NewClient(newOracle(ctx, c, logger),
		advisory.WithTimeout(c.AdvisoryTimeout),
		advisory.WithRateLimit(c.AdvisoryPerMinute),
		advisory.WithLogger(logger.With("component", "advisory")),
	)
	a.advisor = advisor
	a.vault = services.NewVaultController(a.gate, advisor)

	a.backups[backupFile] = backup.NewExporter(a.vault, backup.NewFileSink(c.BackupDir))
	if c.S3Bucket != "" {
		client, err := backup.NewS3Client(ctx, backup.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			logger.Warn(ctx, "s3 backup disabled", "error", err)
		} else {
			a.backups[backupS3] = backup.NewExporter(a.vault, backup.NewS3Sink(client, c.S3Bucket))
		}
	}

	return a, nil
}

func (a *App) openDurable(ctx context.Context) (kv.Repository, error) {
	var (
		db  *sql.DB
		err error
	)

	switch a.config.StorageDriver {
	case config.DriverPostgres:
		db, err = storage.OpenPostgres(ctx, a.config.PostgresDSN)
	default:
		db, err = storage.OpenSQLite(ctx, a.config.DatabasePath)
	}
	if err != nil {
		return nil, fmt.Errorf("open vault store: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	if a.config.StorageDriver == config.DriverPostgres {
		return kv.NewPostgresRepository(db), nil
	}
	return kv.NewSQLiteRepository(db), nil
}

// newOracle returns nil when no API key is configured, which keeps the
// advisory client in its offline fallbacks.
func newOracle(ctx context.Context, c *config.Config, logger logging.Logger) advisory.Oracle {
	if c.GeminiAPIKey == "" {
		logger.Info(ctx, "no Gemini API key, advisory features run offline")
		return nil
	}
	o, err := advisory.NewGeminiOracle(ctx, c.GeminiAPIKey, c.GeminiModel)
	if err != nil {
		logger.Warn(ctx, "advisory oracle unavailable", "error", err)
		return nil
	}
	return o
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run starts the background briefing and blocks in the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.fetchBriefing(ctx)

	fmt.Fprintln(a.out, "Welcome to CypherVault (type 'help' for commands)")
	runREPL(ctx, a, a.reader)
}

func (a *App) fetchBriefing(ctx context.Context) {
	text := a.advisor.GlobalBriefing(ctx)

	a.briefMu.Lock()
	a.briefing = text
	a.briefMu.Unlock()
}

func (a *App) state() services.State {
	return a.gate.State()
}

func (a *App) prompt() string {
	auditing := ""
	if a.vault.Auditing() {
		auditing = " [auditing]"
	}
	if acc := a.gate.ActiveAccount(); acc != "" {
		return fmt.Sprintf("cv (%s %s)%s> ", a.gate.State(), acc, auditing)
	}
	return fmt.Sprintf("cv (%s)%s> ", a.gate.State(), auditing)
}

func (a *App) logFailure(ctx context.Context, cmd string, err error) {
	a.logger.Error(ctx, "command failed", "command", cmd, "error", err)
}
