package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamwatch/cmd/commands/cliconfig"
	"streamwatch/internal/config"
	"streamwatch/internal/controllers"
	"streamwatch/internal/middleware"
	"streamwatch/internal/routes"
	"streamwatch/internal/services"
	"streamwatch/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll host metrics and serve the HTTP and WebSocket API",
		Long: `Start the poller, record every snapshot for session history, and serve
the live metrics API until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cliconfig.Load(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			logger, err := cliconfig.Logger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, err := store.OpenAt(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := cfg.ThresholdTable()
	if err != nil {
		return err
	}
	classifier, err := services.NewClassifier(table)
	if err != nil {
		return err
	}

	auth, err := services.NewAuthService(cfg.Auth.Secret, cfg.Auth.TokenExpiry, logger.Named("auth"))
	if err != nil {
		return err
	}

	var probe services.GPUProbe
	if cfg.GPU.Enabled {
		probe = services.NvidiaSMIProbe{Path: cfg.GPU.NvidiaSMIPath}
	}
	source := services.NewHostSource(probe, services.NewProcessMatcher(cfg.Process.Names), logger.Named("source"))
	history := services.NewHistoryBuffer(cfg.History.Capacity)
	poller := services.NewPoller(source, history, logger.Named("poller"),
		services.WithFetchTimeout(cfg.Poll.FetchTimeout))

	hub := services.NewWebSocketHub(classifier, logger.Named("ws"))
	recorder := services.NewSampleRecorder(st, 256, logger.Named("recorder"))
	retention := services.NewRetentionService(st, cfg.Storage.RetentionDays, logger.Named("retention"))
	poller.OnSnapshot(hub.Publish)
	poller.OnSnapshot(recorder.Observe)

	security := middleware.NewSecurityLogger(logger.Named("security"))
	ctl := controllers.New(controllers.Deps{
		Poller:         poller,
		Classifier:     classifier,
		Sessions:       services.NewSessionService(st, logger.Named("store")),
		Hub:            hub,
		Auth:           auth,
		Security:       security,
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.Security.AllowedOrigins,
	})

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewRouter(ctl, routes.RouterConfig{
		AllowedOrigins: cfg.Security.AllowedOrigins,
		IPWhitelist:    cfg.Security.IPWhitelist,
		RateLimit:      cfg.Security.RateLimit,
		RateBurst:      cfg.Security.RateBurst,
	}, security, logger.Named("http"))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// The handle is released when gctx ends, either on signal or when any
	// service below fails.
	handle, err := poller.Acquire(gctx, cfg.Poll.Interval)
	if err != nil {
		return fmt.Errorf("start poller: %w", err)
	}
	defer handle.Stop()

	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return recorder.Run(gctx) })
	g.Go(func() error { return retention.Run(gctx) })
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.Duration("interval", cfg.Poll.Interval))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-handle.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("stopped", zap.Uint64("discarded", poller.Stats().Discarded))
	return err
}
