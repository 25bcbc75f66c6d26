package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
)

// SourceFetcher resolves a source video locator to a media stream and
// persists it to the destination path.
type SourceFetcher interface {
	Fetch(ctx context.Context, sourceURL, destPath string) error
}

// YtDlpFetcher resolves stream URLs with the local yt-dlp binary and
// downloads the bytes over HTTP.
type YtDlpFetcher struct {
	binaryPath string
	client     *http.Client
}

// NewYtDlpFetcher creates a fetcher. Assumes yt-dlp is in PATH.
func NewYtDlpFetcher() *YtDlpFetcher {
	return &YtDlpFetcher{
		binaryPath: "yt-dlp",
		client:     http.DefaultClient,
	}
}

// Fetch implements SourceFetcher. The format selector prefers the highest
// quality variant whose container matches the mp4 input the rest of the
// pipeline expects.
func (f *YtDlpFetcher) Fetch(ctx context.Context, sourceURL, destPath string) error {
	streamURL, err := f.resolveStreamURL(ctx, sourceURL)
	if err != nil {
		return &FetchError{SourceURL: sourceURL, Err: err}
	}

	if err := f.download(ctx, streamURL, destPath); err != nil {
		return &FetchError{SourceURL: sourceURL, Err: err}
	}
	return nil
}

// resolveStreamURL fetches the direct download link using yt-dlp --get-url.
func (f *YtDlpFetcher) resolveStreamURL(ctx context.Context, sourceURL string) (string, error) {
	// b[ext=mp4]: best single-file mp4 variant; plain b as fallback
	cmd := exec.CommandContext(ctx, f.binaryPath,
		"-f", "b[ext=mp4]/b", "--get-url", "--no-warnings", sourceURL)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, stderr.String())
	}

	urlStr := strings.TrimSpace(out.String())
	if urlStr == "" {
		return "", fmt.Errorf("no compatible stream variant for %s", sourceURL)
	}

	// yt-dlp may emit separate video and audio URLs; the first line is the
	// muxed variant selected by the format expression
	if i := strings.IndexByte(urlStr, '\n'); i >= 0 {
		urlStr = urlStr[:i]
	}
	return urlStr, nil
}

func (f *YtDlpFetcher) download(ctx context.Context, streamURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download: status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		// leave no partial file for later stages to pick up
		os.Remove(destPath)
		return fmt.Errorf("transfer interrupted: %w", err)
	}
	return nil
}
