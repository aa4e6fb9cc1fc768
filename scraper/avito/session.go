package avito

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"deal-finder/config"
)

// Session owns one headless browser for the duration of an ingestion run.
// The browser is stateful and not safe to share across concurrent fetches;
// pages are fetched one at a time and Close must run on every exit path.
type Session struct {
	cfg    *config.Config
	log    zerolog.Logger
	rng    *rand.Rand
	parent context.Context

	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewSession starts a headless browser. A missing or broken Chrome binary is
// a construction-time failure, not a per-page one.
func NewSession(cfg *config.Config, log zerolog.Logger) (*Session, error) {
	bin := findChromeBinary(cfg.ChromeBin)
	log.Debug().Str("binary", bin).Msg("starting browser")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("avito: start browser: %w", err)
	}

	return &Session{
		cfg:           cfg,
		log:           log,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		parent:        browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// Close releases the browser and its allocator.
func (s *Session) Close() {
	s.cancelBrowser()
	s.cancelAlloc()
}

// FetchPage loads one search results page, waits for lazy-loaded content to
// settle, and returns the extracted page. Transport failures are returned as
// is; retry policy belongs to the caller.
func (s *Session) FetchPage(ctx context.Context, pageNum int) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.pause()

	pageURL := s.pageURL(pageNum)
	s.log.Info().Int("page", pageNum).Str("url", pageURL).Msg("fetching page")

	tabCtx, cancelTab := chromedp.NewContext(s.parent)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 90*time.Second)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(s.randDuration(3*time.Second, 5*time.Second)),
		s.scrollUntilSettled(),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("avito: fetch page %d: %w", pageNum, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("avito: parse page %d: %w", pageNum, err)
	}

	page := ParsePage(doc, pageNum, time.Now())
	s.log.Info().
		Int("page", pageNum).
		Int("ads", len(page.Ads)).
		Int("skipped", page.Skipped).
		Bool("has_next", page.HasNext).
		Msg("page extracted")

	return page, nil
}

// pageURL strips any pagination parameter already present in the target URL
// and appends the one for the requested page.
func (s *Session) pageURL(pageNum int) string {
	base := s.cfg.TargetURL
	if i := strings.Index(base, "&p="); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("%s&p=%d", base, pageNum)
}

// scrollUntilSettled scrolls to the bottom until document height stops
// growing, with a bounded number of attempts. Avito lazy-loads the tail of
// the results list.
func (s *Session) scrollUntilSettled() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var lastHeight float64
		if err := chromedp.Evaluate(`document.body.scrollHeight`, &lastHeight).Do(ctx); err != nil {
			return err
		}

		for attempt := 0; attempt < s.cfg.ScrollAttempts; attempt++ {
			if err := chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil).Do(ctx); err != nil {
				return err
			}
			if err := chromedp.Sleep(s.randDuration(2*time.Second, 4*time.Second)).Do(ctx); err != nil {
				return err
			}

			var height float64
			if err := chromedp.Evaluate(`document.body.scrollHeight`, &height).Do(ctx); err != nil {
				return err
			}
			if height == lastHeight {
				break
			}
			lastHeight = height
		}
		return nil
	})
}

// pause applies the randomized courtesy delay before a network call so the
// request cadence is not mechanical.
func (s *Session) pause() {
	min := time.Duration(s.cfg.DelayMinMs) * time.Millisecond
	max := time.Duration(s.cfg.DelayMaxMs) * time.Millisecond
	delay := s.randDuration(min, max)
	s.log.Debug().Dur("delay", delay).Msg("courtesy delay")
	time.Sleep(delay)
}

func (s *Session) randDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
