package comics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

// DefaultBaseURL serves the monthly lists.
const DefaultBaseURL = "https://complex.matrix.jp/comics/tsv"

// ErrNotFound is returned when no list is published for the month.
var ErrNotFound = errors.New("comics list not found")

// URL returns the list address for month under baseURL.
func URL(baseURL string, month time.Time) string {
	return fmt.Sprintf("%s/c%04d%02d.csv", strings.TrimRight(baseURL, "/"), month.Year(), int(month.Month()))
}

// Fetcher downloads monthly lists.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	// Attempts bounds the tries per month; server errors are retried.
	Attempts int
	Interval time.Duration
	Logger   *slog.Logger
}

// NewFetcher returns a Fetcher for baseURL, DefaultBaseURL when empty.
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		BaseURL:  baseURL,
		Client:   http.DefaultClient,
		Attempts: 3,
		Interval: time.Second,
		Logger:   slog.Default(),
	}
}

// Fetch downloads and parses the list for month.
func (f *Fetcher) Fetch(ctx context.Context, month time.Time) ([]Comic, error) {
	month = Month(month)
	if month.Before(Oldest) {
		return nil, fmt.Errorf("fetch %s: lists start at %s", month.Format("2006-01"), Oldest.Format("2006-01"))
	}
	url := URL(f.BaseURL, month)

	var body string
	op := func() error {
		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		f.Logger.Debug("comics fetch retry", "url", url, "retry_in", wait, "err", err)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.Interval), uint64(max(1, f.Attempts)-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	comics := Parse(month, body)
	f.Logger.Info("comics fetched", "month", month.Format("2006-01"), "count", len(comics))
	return comics, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", backoff.Permanent(ErrNotFound)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("server returned %s", resp.Status)
	default:
		return "", backoff.Permanent(fmt.Errorf("server returned %s", resp.Status))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
