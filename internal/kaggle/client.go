package kaggle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
)

// DefaultBaseURL is the Kaggle API root.
const DefaultBaseURL = "https://www.kaggle.com/api/v1"

// ClientConfig configures a dataset download client.
type ClientConfig struct {
	// Dataset is the "owner/slug" identifier, e.g.
	// "olistbr/brazilian-ecommerce".
	Dataset string

	// BaseURL overrides the API root. Defaults to DefaultBaseURL.
	BaseURL string

	// Credentials are the resolver inputs. Resolution happens once per
	// Download call, never earlier.
	Credentials ResolveOptions

	// MaxElapsed bounds the total time spent retrying transient failures.
	// Defaults to 2 minutes.
	MaxElapsed time.Duration

	Logger *slog.Logger
}

// Client downloads dataset archives and extracts them into a directory.
// It implements the pipeline's Downloader contract.
type Client struct {
	cfg ClientConfig
	hc  *http.Client
	log *slog.Logger
}

// NewClient creates a dataset download client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		cfg: cfg,
		hc:  &http.Client{Transport: tr},
		log: log,
	}
}

// Download resolves credentials, fetches the dataset archive, and extracts
// its CSV members into destDir. Transient API failures (5xx, 429) are
// retried with exponential backoff inside a bounded budget; client errors
// are permanent. A missing credential chain fails before any request is
// made.
func (c *Client) Download(ctx context.Context, destDir string) error {
	creds := Resolve(c.cfg.Credentials)
	if creds.Kind == KindNone {
		return fmt.Errorf(
			"no Kaggle credentials found (set %s, or %s and %s, or create ~/.kaggle/kaggle.json): %w",
			EnvToken, EnvUsername, EnvKey, pipeline.ErrCredentialsMissing,
		)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create input directory: %w", err)
	}

	tmp, err := os.CreateTemp("", "vitrine-dataset-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	c.log.Info("downloading dataset",
		slog.String("dataset", c.cfg.Dataset),
		slog.String("credentials", string(creds.Kind)),
	)

	if err := c.fetchArchive(ctx, creds, tmp); err != nil {
		return err
	}

	count, err := ExtractCSVs(tmp.Name(), destDir)
	if err != nil {
		return fmt.Errorf("failed to extract dataset archive: %w", err)
	}

	c.log.Info("dataset downloaded",
		slog.String("dataset", c.cfg.Dataset),
		slog.Int("csv_files", count),
	)
	return nil
}

func (c *Client) fetchArchive(ctx context.Context, creds Credentials, dst *os.File) error {
	url := fmt.Sprintf("%s/datasets/download/%s", c.cfg.BaseURL, c.cfg.Dataset)

	op := func() error {
		// A retried attempt rewrites the file from the start.
		if _, err := dst.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(err)
		}
		if err := dst.Truncate(0); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := applyAuth(req, creds); err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if sec, _ := strconv.Atoi(ra); sec > 0 {
					select {
					case <-time.After(time.Duration(sec) * time.Second):
					case <-ctx.Done():
						return backoff.Permanent(ctx.Err())
					}
				}
			}
			return fmt.Errorf("kaggle rate limited: %s", resp.Status)
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("kaggle %s", resp.Status)
		}

		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("kaggle %s", resp.Status))
		}

		if _, err := io.Copy(dst, resp.Body); err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = c.cfg.MaxElapsed

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("failed to download dataset %s: %w", c.cfg.Dataset, err)
	}
	return nil
}

// applyAuth sets request authentication from a resolved credential. File
// credentials are parsed here, at the last possible moment.
func applyAuth(req *http.Request, creds Credentials) error {
	switch creds.Kind {
	case KindToken:
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	case KindLegacy:
		req.SetBasicAuth(creds.Username, creds.Key)
	case KindFile:
		username, key, err := readCredentialsFile(creds.Path)
		if err != nil {
			return err
		}
		req.SetBasicAuth(username, key)
	default:
		return fmt.Errorf("unsupported credential kind %q", creds.Kind)
	}
	return nil
}

func readCredentialsFile(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credentials file: %w", err)
	}

	var f struct {
		Username string `json:"username"`
		Key      string `json:"key"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return "", "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Username == "" || f.Key == "" {
		return "", "", fmt.Errorf("credentials file %s is missing username or key", path)
	}
	return f.Username, f.Key, nil
}

var _ pipeline.Downloader = (*Client)(nil)
