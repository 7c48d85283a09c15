// Package app wires the fundwatch process: storage, collaborators, the
// reconciliation loops and the operational endpoints.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/fundwatch/internal/attachments"
	"github.com/dmitrijs2005/fundwatch/internal/config"
	"github.com/dmitrijs2005/fundwatch/internal/forum"
	"github.com/dmitrijs2005/fundwatch/internal/health"
	"github.com/dmitrijs2005/fundwatch/internal/ledger"
	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/dmitrijs2005/fundwatch/internal/metrics"
	"github.com/dmitrijs2005/fundwatch/internal/netx"
	"github.com/dmitrijs2005/fundwatch/internal/repositories/repomanager"
	"github.com/dmitrijs2005/fundwatch/internal/scheduler"
	"github.com/dmitrijs2005/fundwatch/internal/services"
	"github.com/dmitrijs2005/fundwatch/internal/wallet"
	"golang.org/x/sync/errgroup"
)

// seams for tests
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepoManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
	newS3Client = attachments.NewS3Client
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	health *health.Server
	loops  []*scheduler.Loop
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	s3client, err := newS3Client(ctx, attachments.Config{
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("s3 client init error: %w", err)
	}

	app := &App{
		config: c,
		logger: logger,
		db:     db,
		health: health.NewServer(c.GRPCHealthAddr, logger),
	}
	if app.loops, err = app.buildLoops(db, rm, s3client); err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) buildLoops(db *sql.DB, rm repomanager.RepositoryManager, s3client *s3.Client) ([]*scheduler.Loop, error) {
	c := app.config
	httpClient := netx.NewRetryableClient(c.RequestRetries, c.RequestRetryDelay, app.logger)

	fc, err := forum.NewClient(forum.Config{
		BaseURL:  c.ForumBaseURL,
		BotUser:  c.ForumBotUser,
		Secret:   []byte(c.ForumSecret),
		TokenTTL: c.ForumTokenTTL,
	}, httpClient, app.logger)
	if err != nil {
		return nil, fmt.Errorf("forum client init error: %w", err)
	}

	reader := ledger.NewReader(wallet.NewClient(c.WalletRPCURL, httpClient, app.logger))
	qr := attachments.NewStore(s3client, c.S3Bucket, c.QRPrefix)

	announcements := services.NewAnnouncementService(db, rm, fc, qr, app.logger)
	contributions := services.NewContributionService(db, rm, reader, c.LegacyHeight, app.logger)
	applier := services.NewApplier(db, rm, fc, c.TitleMaxLength, app.logger)
	sync := services.NewSyncService(db, rm, fc, applier, fc.BotUser(), c.CommentPageSize, app.logger)

	return []*scheduler.Loop{
		scheduler.NewLoop("announce", c.AnnounceInterval, announcements.AnnounceAll, app.logger),
		scheduler.NewLoop("detect", c.DetectInterval, contributions.DetectAll, app.logger),
		scheduler.NewLoop("sync", c.SyncInterval, sync.SyncAll, app.logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case s := <-sigs:
			app.logger.Info(context.Background(), "signal received", "signal", s.String())
			cancelFunc()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run blocks until ctx is done or a termination signal arrives, then stops
// the loops and the endpoints and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	app.logger.Info(ctx, "starting fundwatch", "loops", len(app.loops))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.health.Run(gctx)
	})
	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, app.config.MetricsAddr, app.logger)
		})
	}
	g.Go(func() error {
		app.health.SetServing(true)
		defer app.health.SetServing(false)
		return scheduler.RunGroup(gctx, app.loops...)
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "error", cerr)
	}
	app.logger.Info(ctx, "fundwatch stopped")
	return err
}
