package servecmder

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/easelhq/easel/pkg/gemini"
	"github.com/easelhq/easel/pkg/logger"
	"github.com/easelhq/easel/relay"
)

const serveLongDesc string = `Start the easel relay server.

The relay accepts chat-driven generation turns, forwards them to the
hosted image model, and manages canvas sessions in memory. The provider
API key is read from the GEMINI_API_KEY environment variable and is
required.

Examples:
  easel serve
  easel serve --listen :6060 --debug
  easel serve --config /etc/easel/config.toml`

const serveShortDesc string = "Start the easel relay server"

type serveCommander struct {
	listenAddr string
	configPath string
	debug      bool
	jsonLogs   bool
}

// NewServeCmd builds the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Emit JSON logs instead of console output")

	return cmd
}

func (s *serveCommander) run() error {
	cfg, err := relay.LoadConfig(s.configPath)
	if err != nil {
		return err
	}
	if s.listenAddr != "" {
		cfg.ListenAddr = s.listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.NewLogger(s.debug, s.jsonLogs)
	defer log.Sync()

	// A missing credential is fatal for the whole relay; surface it
	// once at startup rather than per request.
	clientOpts := []gemini.Option{gemini.WithTimeout(cfg.RequestTimeout())}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, gemini.WithBaseURL(cfg.BaseURL))
	}
	client, err := gemini.NewClientFromEnv(clientOpts...)
	if err != nil {
		if errors.Is(err, gemini.ErrMissingAPIKey) {
			return fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return err
	}

	log.Info("easel relay starting",
		zap.String("listen", cfg.ListenAddr),
		zap.Bool("debug", s.debug),
	)

	r := relay.New(cfg, client, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
		if err := r.Shutdown(30 * time.Second); err != nil {
			log.Error("shutdown error", zap.Error(err))
			return err
		}
	}

	log.Info("relay stopped")
	return nil
}
