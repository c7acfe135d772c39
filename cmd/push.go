package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rusal42/floofwebsite/internal/discord"
	"github.com/Rusal42/floofwebsite/internal/service"
	"github.com/Rusal42/floofwebsite/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Connect as the bot and push its stats to the website periodically",
	RunE:  runPush,
}

func init() {
	pushCmd.Flags().String("push-url", "", "Overrides push.url")
}

func runPush(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer logger.Flush()

	if cfg.Discord.BotToken == "" {
		return errors.New("BOT_TOKEN env variable doesn't exist")
	}

	s, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create a session, %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	if err := s.Open(); err != nil {
		return fmt.Errorf("failed to open a session, %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &service.Reporter{
		URL:      cfg.Push.URL,
		Token:    cfg.Bot.APIToken,
		Interval: cfg.Push.Interval,
		Source:   discord.NewSessionSource(s, cfg.App.Version),
	}

	zap.L().Info("Pushing stats", zap.String("url", r.URL), zap.Duration("interval", r.Interval))
	r.Run(ctx)

	return nil
}
