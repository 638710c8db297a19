package feedsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const maxDownloadRetries = 5

// Source is a feed on disk, Close removes it when it was downloaded
type Source struct {
	Path       string
	downloaded bool
}

func (s *Source) Close() error {
	if !s.downloaded {
		return nil
	}

	return os.Remove(s.Path)
}

type Downloader struct {
	Client *http.Client
	// InitialInterval of the exponential backoff between attempts
	InitialInterval time.Duration
}

func NewDownloader() *Downloader {
	return &Downloader{
		Client:          &http.Client{Timeout: 10 * time.Minute},
		InitialInterval: 2 * time.Second,
	}
}

// Open returns a local path for the dataset source, downloading it first when
// the source is an URL
func (d *Downloader) Open(ctx context.Context, dataset DataSet) (*Source, error) {
	if !isValidUrl(dataset.Source) {
		if _, err := os.Stat(dataset.Source); err != nil {
			return nil, err
		}

		return &Source{Path: dataset.Source}, nil
	}

	path, err := d.tempDownloadFile(ctx, dataset.Source, dataset.SourceAuthentication)
	if err != nil {
		return nil, err
	}

	return &Source{Path: path, downloaded: true}, nil
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return u.Scheme == "http" || u.Scheme == "https"
}

func (d *Downloader) tempDownloadFile(ctx context.Context, source string, authentication SourceAuthentication) (string, error) {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = d.InitialInterval

	var path string
	attempt := 0

	operation := func() error {
		attempt++

		downloaded, err := d.download(ctx, source, authentication)
		if err != nil {
			log.Warn().Err(err).Str("source", source).Int("attempt", attempt).Msg("Feed download failed")
			return err
		}

		path = downloaded
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(retryBackoff, maxDownloadRetries), ctx))
	if err != nil {
		return "", err
	}

	log.Info().Str("source", source).Str("path", path).Msg("Downloaded feed")

	return path, nil
}

func (d *Downloader) download(ctx context.Context, source string, authentication SourceAuthentication) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	// Some publishers sit behind Cloudflare which rejects requests without a user agent
	req.Header.Set("User-Agent", "curl/7.54.1")

	query := req.URL.Query()
	for key, value := range authentication.Query {
		query.Set(key, value)
	}
	req.URL.RawQuery = query.Encode()

	for key, value := range authentication.Header {
		req.Header.Set(key, value)
	}

	if authentication.Basic.Username != "" {
		req.SetBasicAuth(authentication.Basic.Username, authentication.Basic.Password)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return "", backoff.Permanent(fmt.Errorf("download of %s returned %s", source, resp.Status))
	} else if resp.StatusCode >= 300 {
		return "", fmt.Errorf("download of %s returned %s", source, resp.Status)
	}

	tmpFile, err := os.CreateTemp(os.TempDir(), "connectivity-feed-*.zip")
	if err != nil {
		return "", backoff.Permanent(err)
	}

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", err
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return "", err
	}

	return tmpFile.Name(), nil
}
