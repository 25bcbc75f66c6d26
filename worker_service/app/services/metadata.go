package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"clipsmith/types"
)

// MetadataProvider looks up title, description and duration for a source
// video. Providers may be unavailable; callers must degrade gracefully and
// never fail a job over missing metadata.
type MetadataProvider interface {
	Lookup(ctx context.Context, sourceURL string) (*types.VideoMetadata, error)
}

// YouTubeMetadataProvider reads video details from the YouTube Data API.
type YouTubeMetadataProvider struct {
	service *youtube.Service
}

// NewYouTubeMetadataProvider creates a provider authenticated with an API key.
func NewYouTubeMetadataProvider(ctx context.Context, apiKey string) (*YouTubeMetadataProvider, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}
	return &YouTubeMetadataProvider{service: service}, nil
}

// Lookup implements MetadataProvider.
func (p *YouTubeMetadataProvider) Lookup(ctx context.Context, sourceURL string) (*types.VideoMetadata, error) {
	videoID := ExtractYouTubeID(sourceURL)
	if videoID == "" {
		return nil, fmt.Errorf("could not extract video ID from %s", sourceURL)
	}

	resp, err := p.service.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	item := resp.Items[0]
	meta := &types.VideoMetadata{}
	if item.Snippet != nil {
		meta.Title = item.Snippet.Title
		meta.Description = item.Snippet.Description
	}
	if item.ContentDetails != nil {
		meta.DurationSeconds = parseISODuration(item.ContentDetails.Duration)
	}
	return meta, nil
}

// ExtractYouTubeID pulls the video identifier out of watch, shorts and
// youtu.be style URLs. Returns "" when no identifier is present.
func ExtractYouTubeID(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		for _, prefix := range []string{"/shorts/", "/embed/"} {
			if strings.HasPrefix(u.Path, prefix) {
				rest := strings.TrimPrefix(u.Path, prefix)
				if i := strings.IndexByte(rest, '/'); i >= 0 {
					rest = rest[:i]
				}
				return rest
			}
		}
	}
	return ""
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts the API's ISO-8601 duration (PT1M42S) to
// seconds. Unparseable input yields 0, which routes the planner to its
// fallback paths.
func parseISODuration(s string) float64 {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var seconds float64
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		seconds += float64(h) * 3600
	}
	if m[2] != "" {
		min, _ := strconv.Atoi(m[2])
		seconds += float64(min) * 60
	}
	if m[3] != "" {
		sec, _ := strconv.Atoi(m[3])
		seconds += float64(sec)
	}
	return seconds
}
