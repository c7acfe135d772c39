package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rusal42/floofwebsite/app"
	"github.com/Rusal42/floofwebsite/config"
	"github.com/Rusal42/floofwebsite/internal"
	"github.com/Rusal42/floofwebsite/internal/discord"
	"github.com/Rusal42/floofwebsite/internal/store"
	"github.com/Rusal42/floofwebsite/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the website API",
	RunE:  runServe,
}

func init() {
	// the root command serves too, so it takes the same flags
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().Int("port", 0, "Overrides host.port")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer logger.Flush()

	gin.SetMode(gin.ReleaseMode)
	logConfigStatus(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := store.New(store.NewVolatile(nil), newDurable(ctx, cfg))
	defer func() {
		if err := stats.Close(); err != nil {
			zap.L().Error("Failed to close durable store", zap.Error(err))
		}
	}()

	d := &internal.Deps{
		Config:    cfg,
		Stats:     stats,
		Identity:  discord.NewOAuth(cfg.Discord.ClientID, cfg.Discord.ClientSecret, cfg.Discord.APIBase, &http.Client{Timeout: 15 * time.Second}),
		StartedAt: time.Now(),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Host.Port),
		Handler:           app.NewRouter(d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting",
			zap.Int("port", cfg.Host.Port),
			zap.String("durable", stats.Backend()),
			zap.String("version", cfg.App.Version),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve, %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server, %w", err)
	}

	return nil
}

// logConfigStatus reports which secrets are present without printing them
func logConfigStatus(cfg *config.Config) {
	set := func(s string) string {
		if s == "" {
			return "missing"
		}
		return "set"
	}

	jwtStatus := "set"
	if cfg.JWT.Secret == config.DefaultJWTSecret {
		jwtStatus = "default"
	}

	zap.L().Info("Configuration",
		zap.String("discord_client_id", set(cfg.Discord.ClientID)),
		zap.String("discord_client_secret", set(cfg.Discord.ClientSecret)),
		zap.String("jwt_secret", jwtStatus),
		zap.String("bot_api_token", set(cfg.Bot.APIToken)),
		zap.String("environment", cfg.App.Environment),
	)
}
