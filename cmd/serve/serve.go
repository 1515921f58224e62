// Package serve implements the serve sub-command.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bgsc/vaultui/api"
	"github.com/bgsc/vaultui/app"
	cmdCommon "github.com/bgsc/vaultui/cmd/common"
	"github.com/bgsc/vaultui/common"
	"github.com/bgsc/vaultui/config"
	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
	"github.com/bgsc/vaultui/vault"
	"github.com/bgsc/vaultui/wallet"
)

const (
	moduleName = "serve"

	defaultRequestTimeout = 10 * time.Second
	dialTimeout           = 10 * time.Second
)

var (
	// Path to the configuration file.
	configFile string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the vault dashboard",
		Run:   runServer,
	}
)

func runServer(cmd *cobra.Command, args []string) {
	// Initialize config.
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"err", err,
		)
		os.Exit(1)
	}

	// Initialize common environment.
	if err = cmdCommon.Init(cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"err", err,
		)
		os.Exit(1)
	}
	logger := cmdCommon.RootLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := NewService(ctx, cfg, logger)
	if err != nil {
		logger.Error("service failed to start", "err", err)
		os.Exit(1)
	}
	defer service.Shutdown()

	if err := service.Run(ctx); err != nil {
		logger.Error("service stopped", "err", err)
		os.Exit(1)
	}
}

// Service is the dashboard service: the app, its HTTP server and, when
// configured, the wallet provider poller and the metrics endpoint.
type Service struct {
	app      *app.App
	conn     *wallet.Connection
	provider *wallet.RPCProvider
	server   *http.Server
	pull     *metrics.PullService
	logger   *log.Logger
}

// NewService wires the service from cfg.
func NewService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Service, error) {
	logger = logger.WithModule(moduleName)
	s := &Service{logger: logger}

	var provider wallet.Provider
	if cfg.Wallet.Kind() == config.ProviderRPC {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		p, err := wallet.DialRPCProvider(dialCtx, cfg.Wallet.RPC, cfg.Wallet.PollInterval, logger)
		if err != nil {
			return nil, err
		}
		s.provider = p
		provider = p
	}
	s.conn = wallet.NewConnection(provider, logger)

	contract := vault.NewSimulatedContract(cfg.Vault.OperationDelay, cfg.Vault.RewardPeriod, logger)
	s.app = app.New(
		cfg.Vault,
		s.conn,
		contract,
		cfg.Server.InitialLanguage(),
		logger,
		metrics.NewDefaultVaultMetrics("vaultui"),
	)

	requestTimeout := defaultRequestTimeout
	if cfg.Server.RequestTimeout != nil {
		requestTimeout = *cfg.Server.RequestTimeout
	}
	s.server = &http.Server{
		Addr:           cfg.Server.Endpoint,
		Handler:        api.NewRouter(s.app, requestTimeout, logger),
		ReadTimeout:    requestTimeout,
		WriteTimeout:   requestTimeout + time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	if cfg.Metrics != nil {
		s.pull = metrics.NewPullService(cfg.Metrics.PullEndpoint, logger)
	}
	return s, nil
}

// Run runs every part of the service until ctx is cancelled or one of
// them fails.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.app.Run(ctx)
	})
	g.Go(func() error {
		if err := common.RunServer(ctx, s.server, s.logger); err != nil {
			return fmt.Errorf("dashboard server: %w", err)
		}
		return nil
	})
	if s.provider != nil {
		g.Go(func() error {
			s.provider.Start(ctx)
			return nil
		})
	}
	if s.pull != nil {
		g.Go(func() error {
			if err := s.pull.Run(ctx); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	s.logger.Info("started all services")
	return g.Wait()
}

// Shutdown releases the resources held by the service.
func (s *Service) Shutdown() {
	s.app.Close()
	s.conn.Close()
	if s.provider != nil {
		s.provider.Close()
	}
}

// Register registers the serve sub-command.
func Register(parentCmd *cobra.Command) {
	serveCmd.Flags().StringVar(&configFile, "config", "./config/vaultui.yml", "path to the config.yml file")
	parentCmd.AddCommand(serveCmd)
}
