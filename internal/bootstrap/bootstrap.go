package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"

	ledgerinadapter "streakd/internal/modules/ledger/adapter/in"
	ledgeroutadapter "streakd/internal/modules/ledger/adapter/out"
	ledgerservice "streakd/internal/modules/ledger/service"
	ledgerusecase "streakd/internal/modules/ledger/usecase"
	sessioninadapter "streakd/internal/modules/session/adapter/in"
	sessionoutadapter "streakd/internal/modules/session/adapter/out"
	sessionout "streakd/internal/modules/session/port/out"
	sessionservice "streakd/internal/modules/session/service"
	sessionusecase "streakd/internal/modules/session/usecase"
	streakinadapter "streakd/internal/modules/streak/adapter/in"
	streakoutadapter "streakd/internal/modules/streak/adapter/out"
	streakservice "streakd/internal/modules/streak/service"
	streakusecase "streakd/internal/modules/streak/usecase"
	verificationinadapter "streakd/internal/modules/verification/adapter/in"
	verificationoutadapter "streakd/internal/modules/verification/adapter/out"
	verificationdomain "streakd/internal/modules/verification/domain"
	verificationservice "streakd/internal/modules/verification/service"
	verificationusecase "streakd/internal/modules/verification/usecase"
	"streakd/internal/platform/auth"
	"streakd/internal/platform/clock"
	"streakd/internal/platform/config"
	"streakd/internal/platform/httpapi"
	"streakd/internal/platform/id"
	"streakd/internal/platform/idempotency"
	"streakd/internal/platform/logging"
	"streakd/internal/platform/sqlitedb"
	"streakd/internal/server"
	uiapp "streakd/internal/ui/app"
)

type App struct {
	StreakCLI       streakinadapter.CLIHandler
	LedgerCLI       ledgerinadapter.CLIHandler
	VerificationCLI verificationinadapter.CLIHandler
	SessionCLI      sessioninadapter.CLIHandler
	Server          *server.Server

	// Remote is set when the session engine talks to a streakd server.
	Remote bool

	db       *sql.DB
	redis    *redis.Client
	memStore *idempotency.MemoryStore
	cfg      config.Config
	logger   hclog.Logger
}

func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	logger = logging.OrDiscard(logger)
	clk := clock.SystemClock{}
	ids := id.UUID{}

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app := &App{db: db, cfg: cfg, logger: logger}

	history, err := ledgeroutadapter.NewSQLiteHistoryStore(db)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("new history store: %w", err)
	}
	verifications, err := verificationoutadapter.NewSQLiteVerificationStore(db)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("new verification store: %w", err)
	}
	streaks, err := streakoutadapter.NewSQLiteStreakStore(db)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("new streak store: %w", err)
	}
	categories, err := streakoutadapter.NewSQLiteCategoryStore(db)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("new category store: %w", err)
	}
	txm := sqlitedb.NewTxManager(db)

	guard := idempotency.NewGuard(app.idempotencyStore(clk), cfg.Idem.TTL, clk, logger)
	streakUC := streakusecase.NewInteractor(
		streakservice.NewStreakService(clk, ids, streaks, categories, txm, verifications, history),
		guard,
		logger,
	)
	ledgerUC := ledgerusecase.NewInteractor(
		ledgerservice.NewLedgerService(clk, ids, history, ledgeroutadapter.NewStreakAccess(streakUC), txm),
		ledgeroutadapter.NewJournalNoteStore(cfg.JournalDir),
		logger,
	)
	verificationUC := verificationusecase.NewInteractor(
		verificationservice.NewVerificationService(
			clk,
			ids,
			verificationoutadapter.NewFileManifestStore(cfg.DataDir, verificationdomain.Manifest{
				Name:    cfg.Verifier.Name,
				Version: cfg.Verifier.Version,
				Binary:  cfg.Verifier.Binary,
				SHA256:  cfg.Verifier.SHA256,
			}),
			verificationoutadapter.NewGRPCAnalyzer(),
			verifications,
			verificationoutadapter.NewStreakAccess(streakUC),
			verificationoutadapter.NewHistoryLinker(ledgerUC),
			txm,
			cfg.Verifier.Timeout,
		),
		logger,
	)

	var (
		streakReader sessionout.StreakReader
		ledgerGW     sessionout.LedgerGateway
	)
	if cfg.ServerURL != "" {
		client := httpapi.NewClient(cfg.ServerURL, cfg.Token, nil)
		streakReader = sessionoutadapter.NewHTTPStreakReader(client)
		ledgerGW = sessionoutadapter.NewHTTPLedgerGateway(client)
		app.Remote = true
	} else {
		streakReader = sessionoutadapter.NewLocalStreakReader(streakUC)
		ledgerGW = sessionoutadapter.NewLocalLedgerGateway(ledgerUC)
	}
	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clk),
		streakReader,
		ledgerGW,
		sessionoutadapter.NewFileSnapshotStore(cfg.SnapshotDir),
		logger,
	)

	app.StreakCLI = streakinadapter.NewCLIHandler(streakUC)
	app.LedgerCLI = ledgerinadapter.NewCLIHandler(ledgerUC)
	app.VerificationCLI = verificationinadapter.NewCLIHandler(verificationUC)
	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.Server = server.New(
		auth.NewStaticTokens(cfg.Server.Tokens),
		logger,
		streakinadapter.NewHTTPHandler(streakUC),
		ledgerinadapter.NewHTTPHandler(ledgerUC),
		verificationinadapter.NewHTTPHandler(verificationUC),
	)
	return app, nil
}

// idempotencyStore shares replay entries through redis when configured, and
// keeps them in process memory otherwise.
func (a *App) idempotencyStore(clk clock.Clock) idempotency.Store {
	if a.cfg.Idem.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.Idem.RedisAddr})
		return idempotency.NewRedisStore(a.redis, "")
	}
	a.memStore = idempotency.NewMemoryStore(clk)
	return a.memStore
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.memStore != nil {
		go a.memStore.RunSweeper(ctx, a.cfg.Idem.Sweep)
	}
	return a.Server.Run(ctx, a.cfg.Server.Addr)
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
}

// RunTUI opens the floating timer for one streak. Quitting leaves the run
// persisted so the next launch resumes it.
func RunTUI(app *App, userID, streakID string) error {
	model := uiapp.NewModel(app.SessionCLI, userID, streakID)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
