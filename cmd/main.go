package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	grpcctx "github.com/dtroode/authkeeper/internal/api/grpc/context"
	"github.com/dtroode/authkeeper/internal/api/grpc/router"
	grpcServer "github.com/dtroode/authkeeper/internal/api/grpc/server"
	"github.com/dtroode/authkeeper/internal/config"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/metrics"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/notifier"
	"github.com/dtroode/authkeeper/internal/password"
	"github.com/dtroode/authkeeper/internal/repository/memory"
	"github.com/dtroode/authkeeper/internal/repository/postgres"
	"github.com/dtroode/authkeeper/internal/server"
	"github.com/dtroode/authkeeper/internal/service"
	storage "github.com/dtroode/authkeeper/internal/storage/minio"
	"github.com/dtroode/authkeeper/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

// stores groups the persistence the service runs on.
type stores struct {
	users       model.UserStore
	tokens      model.TokenStore
	permissions model.PermissionStore
	emails      model.EmailStore
	transactor  model.Transactor
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	st, closeStores, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer closeStores()

	tokenManager, err := token.NewJWT(token.Options{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Lifetimes: map[model.Purpose]time.Duration{
			model.PurposeAccess:          cfg.JWT.AccessLifetime,
			model.PurposeRefresh:         cfg.JWT.RefreshLifetime,
			model.PurposeResetPassword:   cfg.JWT.ResetPasswordLifetime,
			model.PurposeActivateAccount: cfg.JWT.ActivateAccountLifetime,
		},
	})
	if err != nil {
		logger.Fatal("failed to initialize token manager", "error", err)
	}

	hasher, err := password.New(password.Options{
		Algorithm:  cfg.Password.Algorithm,
		BcryptCost: cfg.Password.BcryptCost,
	})
	if err != nil {
		logger.Fatal("failed to initialize password hasher", "error", err)
	}

	m := metrics.New()
	m.SetBuildInfo(buildVersion, buildCommit)

	mailNotifier, closeNotifier, err := buildNotifier(ctx, cfg, st.emails, m, logger)
	if err != nil {
		logger.Fatal("failed to initialize notifier", "error", err)
	}
	defer closeNotifier()

	tokenService := service.NewTokenService(tokenManager, st.tokens, logger)
	mailer := service.NewMailer(service.MailConfig{
		From:             cfg.Notifier.From,
		ActivationURL:    cfg.Links.ActivationURL,
		ResetPasswordURL: cfg.Links.ResetPasswordURL,
	})
	authService := service.NewAuth(st.users, st.permissions, tokenService, hasher, st.transactor, mailNotifier, mailer, logger)

	servers := []model.Server{
		registerGRPCServer(authService, m, grpcctx.NewManager(), logger, fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}
	if cfg.Metrics.Enabled {
		servers = append(servers, server.NewHTTPServer(cfg.Metrics.Address, "/metrics", m.Handler()))
	}

	var sl model.SecurityLayer
	if cfg.GRPC.EnableHTTPS {
		sl = server.NewTLSListener(cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	for i, s := range servers {
		// the metrics endpoint stays plain
		layer := sl
		if i > 0 {
			layer = server.NewPlainListener()
		}

		wg.Add(1)
		go func(s model.Server, layer model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(layer); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s, layer)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func openStores(ctx context.Context, cfg config.Database, logger *logger.Logger) (stores, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return stores{
			users:       s.Users(),
			tokens:      s.Tokens(),
			permissions: s.Permissions(),
			emails:      s.Emails(),
			transactor:  s,
		}, func() {}, nil
	}

	db, err := postgres.NewConnection(ctx, cfg.DSN)
	if err != nil {
		return stores{}, nil, err
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	return stores{
		users:       postgres.NewUserRepository(db),
		tokens:      postgres.NewTokenRepository(db),
		permissions: postgres.NewPermissionRepository(db.DB),
		emails:      postgres.NewEmailRepository(db),
		transactor:  postgres.NewTransactor(db),
	}, closeDB, nil
}

func buildNotifier(
	ctx context.Context,
	cfg *config.Config,
	emails model.EmailStore,
	recorder notifier.Recorder,
	logger *logger.Logger,
) (model.Notifier, func(), error) {
	var (
		n      model.Notifier
		closer io.Closer
	)

	switch cfg.Notifier.Driver {
	case config.NotifierRabbitMQ:
		r, err := notifier.DialRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return nil, nil, err
		}
		n, closer = r, r
	case config.NotifierKafka:
		k := notifier.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		n, closer = k, k
	case config.NotifierLog:
		n = notifier.NewLog(logger)
	default:
		n = notifier.NewOutbox(emails)
	}

	if cfg.Storage.ArchiveEnabled {
		archive, err := storage.Connect(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return nil, nil, fmt.Errorf("failed to initialize mail archive: %w", err)
		}
		n = notifier.NewArchive(archive, n, logger)
	}

	closeFn := func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Error("failed to close notifier", "error", err)
		}
	}

	return notifier.NewInstrumented(n, cfg.Notifier.Driver, recorder), closeFn, nil
}

func registerGRPCServer(
	authService *service.Auth,
	m *metrics.Metrics,
	ctxMgr model.ContextManager,
	logger *logger.Logger,
	addr string,
) *grpcServer.GRPCServer {
	r := router.New(authService, m, ctxMgr, logger)
	s := r.Register()

	reflection.Register(s)

	return grpcServer.NewGRPCServer(s, addr)
}
