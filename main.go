package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"deal-finder/api"
	"deal-finder/config"
	"deal-finder/models"
	"deal-finder/scraper/avito"
	"deal-finder/services"
	"deal-finder/storage"
)

// CLI mirrors the pipeline's orchestration steps: ingest produces the JSON
// array of newly stored ads, notify consumes it, serve exposes the read side.
type CLI struct {
	Verbose bool `help:"Enable debug logging."`

	Ingest IngestCmd `cmd:"" help:"Scrape Avito, persist unseen ads, print them as JSON."`
	Notify NotifyCmd `cmd:"" help:"Read ingested ads from stdin, score them and send Telegram alerts."`
	Serve  ServeCmd  `cmd:"" help:"Serve the read-only listings API."`
}

// runContext carries the shared dependencies into subcommands.
type runContext struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("deal-finder"),
		kong.Description("Avito deal-finder ingestion pipeline."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	level := zerolog.InfoLevel
	if cli.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := config.Load()

	if err := kctx.Run(&runContext{cfg: cfg, log: logger}); err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

type IngestCmd struct {
	Pages int `help:"Number of result pages to scan (0 = PAGES_TO_SCAN from env)." default:"0"`
}

// Run executes one ingestion run and prints the newly stored ads to stdout as
// a JSON array. No qualifying records prints []. Any fatal condition surfaces
// as a non-zero exit, never as a silently empty success.
func (c *IngestCmd) Run(rc *runContext) error {
	if rc.cfg.TargetURL == "" {
		return fmt.Errorf("AVITO_TARGET_URL is not set")
	}

	pages := c.Pages
	if pages <= 0 {
		pages = rc.cfg.PagesToScan
	}

	store, err := storage.NewPostgresStore(rc.cfg.DSN(), rc.log)
	if err != nil {
		return err
	}
	defer store.Close()

	ingestor, err := services.NewIngestor(rc.cfg, rc.log, store, func() (services.PageSource, error) {
		return avito.NewSession(rc.cfg, rc.log)
	})
	if err != nil {
		return err
	}

	ads, err := ingestor.Run(context.Background(), pages)
	if err != nil {
		return err
	}
	if ads == nil {
		ads = []*models.Listing{}
	}

	return json.NewEncoder(os.Stdout).Encode(ads)
}

type NotifyCmd struct{}

// Run reads the ingest step's JSON output from stdin, asks the gate for the
// profitable subset and delivers one alert per ad. A single delivery failure
// never aborts the remaining messages.
func (c *NotifyCmd) Run(rc *runContext) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		rc.log.Info().Msg("no input, nothing to notify")
		return nil
	}

	var ads []*models.Listing
	if err := json.Unmarshal(raw, &ads); err != nil {
		return fmt.Errorf("decode ads: %w", err)
	}
	if len(ads) == 0 {
		rc.log.Info().Msg("no new ads, nothing to notify")
		return nil
	}

	if rc.cfg.PredictorURL == "" {
		return fmt.Errorf("PREDICTOR_URL is not set")
	}
	if rc.cfg.TelegramBotToken == "" || rc.cfg.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID are not set")
	}

	gate := services.NewHTTPGate(rc.cfg.PredictorURL, rc.cfg.ProfitThreshold, rc.log)
	profitable, err := gate.Score(context.Background(), ads)
	if err != nil {
		return err
	}
	if len(profitable) == 0 {
		rc.log.Info().Msg("no profitable ads, skipping notifications")
		return nil
	}

	notifier := services.NewTelegramNotifier(rc.cfg.TelegramBotToken, rc.cfg.TelegramChatID, rc.log)
	sender := services.NewAlertSender(notifier,
		time.Duration(rc.cfg.NotifyGapMs)*time.Millisecond, rc.cfg.NotifyRetries, rc.log)

	if failed := sender.Send(context.Background(), profitable); failed > 0 {
		rc.log.Warn().Int("failed", failed).Int("total", len(profitable)).Msg("some alerts were not delivered")
	}
	return nil
}

type ServeCmd struct{}

// Run serves the read-only listings API until the process is stopped.
func (c *ServeCmd) Run(rc *runContext) error {
	store, err := storage.NewPostgresStore(rc.cfg.DSN(), rc.log)
	if err != nil {
		return err
	}
	defer store.Close()

	server := api.NewServer(store, rc.log)
	rc.log.Info().Str("addr", rc.cfg.ListenAddr).Msg("serving listings API")
	return http.ListenAndServe(rc.cfg.ListenAddr, server.Router())
}
