package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"deal-finder/models"
	"deal-finder/utils"
)

// Notifier delivers one human-readable alert. Delivery may fail; failures are
// reported per message and never abort the rest of a batch.
type Notifier interface {
	Deliver(ctx context.Context, message string) error
}

// TelegramNotifier sends alerts through the Telegram Bot API.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	log     zerolog.Logger
}

func NewTelegramNotifier(token, chatID string, log zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		apiBase: "https://api.telegram.org",
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// Deliver posts one sendMessage call with HTML formatting enabled.
func (n *TelegramNotifier) Deliver(ctx context.Context, message string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	form := url.Values{
		"chat_id":    {n.chatID},
		"text":       {message},
		"parse_mode": {"HTML"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telegram: http %d", resp.StatusCode)
	}
	return nil
}

// FormatAlert renders the alert message for one profitable ad.
func FormatAlert(ad *models.ScoredListing) string {
	price := "N/A"
	if ad.Price != nil {
		price = fmt.Sprintf("%d", *ad.Price)
	}
	return fmt.Sprintf(
		"<b>🔥🔥🔥 Найдено выгодное предложение! 🔥🔥🔥</b>\n\n"+
			"<b>%s</b>\n\n"+
			"<b>Цена:</b> %s руб.\n"+
			"<b>Ожидаемая цена:</b> %d руб.\n"+
			"<b>💥 ВЫГОДА: ~%d руб. 💥</b>\n\n"+
			"<a href='%s'>🔗 Ссылка на объявление</a>",
		ad.Title, price, ad.PredictedPrice, ad.Profit, ad.URL,
	)
}

// AlertSender paces deliveries through a rate-limited pool and retries each
// message independently.
type AlertSender struct {
	notifier  Notifier
	pool      *utils.Pool
	retries   int
	baseDelay time.Duration
	log       zerolog.Logger
}

func NewAlertSender(notifier Notifier, gap time.Duration, retries int, log zerolog.Logger) *AlertSender {
	return &AlertSender{
		notifier:  notifier,
		pool:      utils.NewPool(1, gap),
		retries:   retries,
		baseDelay: 2 * time.Second,
		log:       log,
	}
}

// Send delivers one alert per ad and returns the number of failed deliveries.
// A failed message is logged and counted; the remaining messages are still
// attempted.
func (a *AlertSender) Send(ctx context.Context, ads []*models.ScoredListing) int {
	var failed int64
	for _, ad := range ads {
		ad := ad
		a.pool.Submit(func() {
			retry := &utils.Retry{
				MaxAttempts: a.retries,
				BaseDelay:   a.baseDelay,
				Log:         a.log,
			}
			err := retry.Do("telegram-delivery", func() error {
				return a.notifier.Deliver(ctx, FormatAlert(ad))
			})
			if err != nil {
				atomic.AddInt64(&failed, 1)
				a.log.Error().Err(err).Int64("avito_id", ad.AvitoID).Msg("alert delivery failed")
				return
			}
			a.log.Info().Int64("avito_id", ad.AvitoID).Msg("alert delivered")
		})
	}
	a.pool.Wait()
	return int(atomic.LoadInt64(&failed))
}
