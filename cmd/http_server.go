package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"github.com/yusufwdn/reimverse/internal/activity"
	activityPostgres "github.com/yusufwdn/reimverse/internal/activity/postgres"
	"github.com/yusufwdn/reimverse/internal/auth"
	authPostgres "github.com/yusufwdn/reimverse/internal/auth/postgres"
	"github.com/yusufwdn/reimverse/internal/category"
	categoryPostgres "github.com/yusufwdn/reimverse/internal/category/postgres"
	"github.com/yusufwdn/reimverse/internal/core/events"
	"github.com/yusufwdn/reimverse/internal/notification"
	notificationAMQP "github.com/yusufwdn/reimverse/internal/notification/amqp"
	notificationPostgres "github.com/yusufwdn/reimverse/internal/notification/postgres"
	"github.com/yusufwdn/reimverse/internal/receipt"
	"github.com/yusufwdn/reimverse/internal/reimbursement"
	reimbursementPostgres "github.com/yusufwdn/reimverse/internal/reimbursement/postgres"
	"github.com/yusufwdn/reimverse/internal/transport"
	"github.com/yusufwdn/reimverse/internal/transport/rest"
	"github.com/yusufwdn/reimverse/internal/transport/swagger"
	"github.com/yusufwdn/reimverse/internal/user"
	userPostgres "github.com/yusufwdn/reimverse/internal/user/postgres"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// application is the wired HTTP side of the service. Notifications leave
// through the broker when one is configured and through the in-process pool
// otherwise.
type application struct {
	router chi.Router
	bus    *events.EventBus
	pool   *notification.Pool
	broker *notificationAMQP.Client
	logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	if _, err := swagger.Load(context.Background()); err != nil {
		lg.Error("invalid OpenAPI document", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(deps)
	if err != nil {
		lg.Error("failed to build application", "error", err)
		deps.Close()
		os.Exit(1)
	}

	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           app.router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case sig := <-sigChan:
		lg.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server failed to start", "error", err)
			exitCode = 1
		}
	}

	app.close()
	deps.Close()
	lg.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func buildApplication(deps *Dependencies) (*application, error) {
	cfg := deps.Config
	lg := deps.Logger
	base := transport.NewBaseHandler(lg)

	loc, err := cfg.Server.Location()
	if err != nil {
		return nil, err
	}

	app := &application{bus: events.NewEventBus(lg), logger: lg}

	var queue notification.Queue
	if cfg.Queue.AMQPURL != "" {
		client, err := notificationAMQP.Dial(cfg.Queue.AMQPURL, cfg.Queue.Exchange, cfg.Queue.Queue, lg)
		if err != nil {
			return nil, err
		}
		app.broker = client
		queue = client
		lg.Info("notifications are published to the broker", "exchange", cfg.Queue.Exchange, "queue", cfg.Queue.Queue)
	} else {
		app.pool = newNotificationPool(deps)
		queue = app.pool
		lg.Info("no broker configured, notifications are delivered in-process")
	}

	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration),
		cfg.Security.BCryptCost,
		lg)
	userService := user.NewService(userPostgres.NewUserRepository(deps.Gorm), cfg.Security.BCryptCost, lg)
	categoryService := category.NewService(categoryPostgres.NewCategoryRepository(deps.Gorm), lg)

	notification.NewDispatcher(notification.NewNotifier(userService, cfg.Mail.AppURL), queue, lg).Register(app.bus)

	claims := reimbursementPostgres.NewReimbursementRepository(deps.Gorm)
	store := receipt.NewLocalStore(cfg.Storage.ReceiptsDir, cfg.Storage.PublicBaseURL, cfg.Storage.MaxImageDimension, lg)
	reimbursementService := reimbursement.NewService(claims, categoryService, store, app.bus,
		reimbursement.Config{MaxReceiptBytes: cfg.Storage.MaxReceiptBytes, Location: loc}, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps.DB, cfg.Storage.ReceiptsDir, rest.Handlers{
		Auth:          auth.NewHandler(base, authService),
		RBAC:          auth.NewRBACAuthorization(base, lg),
		User:          user.NewHandler(base, userService),
		Category:      category.NewHandler(base, categoryService),
		Reimbursement: reimbursement.NewHandler(base, reimbursementService, cfg.Storage.MaxReceiptBytes, loc),
		Activity:      activity.NewHandler(base, activity.NewService(activityPostgres.NewReader(deps.DB), claims, lg)),
		Notification:  notification.NewHandler(base, notification.NewService(notificationPostgres.NewNotificationRepository(deps.Gorm), lg)),
	})
	app.router = router

	return app, nil
}

// close waits for in-flight event handlers before the queue behind them goes
// away.
func (a *application) close() {
	a.bus.Wait()
	if a.pool != nil {
		a.pool.Shutdown()
	}
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Error("broker close error", "error", err)
		}
	}
}
