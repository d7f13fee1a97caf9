// Package provider resolves play requests into downloaded, locally playable
// tracks.
package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/kkdai/youtube/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/imnhyneko/hatsune/pkg/player"
)

var (
	ErrNotFound = errors.New("no results found")
	ErrNoAudio  = errors.New("no audio format available")
)

// YouTube resolves queries and URLs against YouTube, downloading the audio
// stream into the cache directory. Each resolved track owns its own cache
// file, so the same video requested twice never shares one.
type YouTube struct {
	client   youtube.Client
	cacheDir string
}

// NewYouTube creates a resolver that stores downloads under cacheDir.
func NewYouTube(cacheDir string) (*YouTube, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}
	return &YouTube{cacheDir: cacheDir}, nil
}

// Resolve turns a URL or search query into a downloaded Track. Search
// queries are resolved to the first matching video.
func (y *YouTube) Resolve(ctx context.Context, query, requestedBy string) (*player.Track, error) {
	url := query
	if !IsURL(query) {
		found, err := y.search(ctx, query)
		if err != nil {
			return nil, err
		}
		url = found
	}

	video, err := y.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch video info for %q", url)
	}

	format, err := pickAudioFormat(video)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(y.cacheDir, fmt.Sprintf("%s-%s%s", video.ID, shortID(), formatExt(format)))
	if err := y.download(ctx, video, format, path); err != nil {
		return nil, err
	}

	zlog.Info().Str("video", video.ID).Str("title", video.Title).Str("file", path).Msg("Downloaded track")

	return &player.Track{
		ID:          video.ID,
		Title:       video.Title,
		URL:         "https://www.youtube.com/watch?v=" + video.ID,
		Uploader:    video.Author,
		Thumbnail:   thumbnailURL(video),
		Duration:    video.Duration,
		RequestedBy: requestedBy,
		FilePath:    path,
	}, nil
}

func (y *YouTube) download(ctx context.Context, video *youtube.Video, format *youtube.Format, path string) error {
	stream, _, err := y.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return errors.Wrapf(err, "failed to open stream for %q", video.ID)
	}
	defer stream.Close()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create cache file")
	}
	defer f.Close()

	if _, err := io.Copy(f, stream); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "failed to download %q", video.ID)
	}
	return nil
}

// search finds the first matching video URL via yt-dlp.
func (y *YouTube) search(ctx context.Context, query string) (string, error) {
	zlog.Info().Str("query", query).Msg("Searching YouTube")

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--no-playlist",
		"--no-warnings",
		"--flat-playlist",
		"--print", "url",
		"ytsearch1:"+query)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	url := strings.TrimSpace(strings.SplitN(out.String(), "\n", 2)[0])

	if url == "" {
		if runErr != nil {
			zlog.Warn().Err(runErr).Str("stderr", stderr.String()).Msg("YouTube search failed")
			return "", errors.Wrap(runErr, "failed to search YouTube")
		}
		return "", ErrNotFound
	}
	return url, nil
}

// pickAudioFormat prefers the m4a audio-only stream and falls back to any
// format carrying audio channels.
func pickAudioFormat(video *youtube.Video) (*youtube.Format, error) {
	if formats := video.Formats.Itag(140); len(formats) > 0 {
		return &formats[0], nil
	}
	if formats := video.Formats.WithAudioChannels(); len(formats) > 0 {
		return &formats[0], nil
	}
	return nil, ErrNoAudio
}

func formatExt(format *youtube.Format) string {
	if strings.Contains(format.MimeType, "webm") {
		return ".webm"
	}
	return ".m4a"
}

func thumbnailURL(video *youtube.Video) string {
	if len(video.Thumbnails) > 0 {
		return video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", video.ID)
}

func shortID() string {
	return uuid.NewString()[:8]
}

// IsURL checks whether a play argument is a URL rather than a search query.
func IsURL(str string) bool {
	return strings.HasPrefix(str, "http://") || strings.HasPrefix(str, "https://") ||
		strings.HasPrefix(str, "www.")
}
