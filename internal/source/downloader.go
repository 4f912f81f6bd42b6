// Package source acquires remote talks as local mp3 files.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"esgrag/internal/content"
)

const maxFilenameRunes = 50

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
	underscores = regexp.MustCompile(`_+`)
)

// SafeFilename turns a media title into a portable file stem.
func SafeFilename(title string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(title), "_")
	s = underscores.ReplaceAllString(s, "_")
	if r := []rune(s); len(r) > maxFilenameRunes {
		s = string(r[:maxFilenameRunes])
	}
	s = strings.Trim(s, "_")
	if s == "" {
		return "audio"
	}
	return s
}

// Downloader fetches the audio track of a URL with yt-dlp. A file that is
// already present is reused without downloading again.
type Downloader struct {
	binary    string
	outputDir string
	runner    CommandRunner
	logger    *slog.Logger
}

func NewDownloader(binary, outputDir string, runner CommandRunner) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Downloader{
		binary:    binary,
		outputDir: outputDir,
		runner:    runner,
		logger:    slog.Default().With("component", "downloader"),
	}
}

// Fetch returns the local mp3 path for url. Every failure is a content.NotFoundError.
func (d *Downloader) Fetch(ctx context.Context, url string) (string, error) {
	if path, ok := localPath(url); ok {
		if _, err := os.Stat(path); err != nil {
			return "", &content.NotFoundError{URL: url, Err: err}
		}
		return path, nil
	}

	out, err := d.runner.Run(ctx, d.binary, "--skip-download", "--no-playlist", "--print", "title", url)
	if err != nil {
		return "", &content.NotFoundError{URL: url, Err: err}
	}
	title := strings.TrimSpace(firstLine(string(out)))
	if title == "" {
		return "", &content.NotFoundError{URL: url, Err: fmt.Errorf("no title reported")}
	}

	stem := SafeFilename(title)
	target := filepath.Join(d.outputDir, stem+".mp3")

	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		d.logger.InfoContext(ctx, "media already downloaded", "url", url, "path", target)
		return target, nil
	}

	if err := os.MkdirAll(d.outputDir, 0o750); err != nil {
		return "", &content.NotFoundError{URL: url, Err: err}
	}

	d.logger.InfoContext(ctx, "downloading media", "url", url, "path", target)
	_, err = d.runner.Run(ctx, d.binary,
		"--no-playlist",
		"-x", "--audio-format", "mp3", "--audio-quality", "192K",
		"-o", filepath.Join(d.outputDir, stem+".%(ext)s"),
		url,
	)
	if err != nil {
		return "", &content.NotFoundError{URL: url, Err: err}
	}

	if _, err := os.Stat(target); err != nil {
		return "", &content.NotFoundError{URL: url, Err: err}
	}
	return target, nil
}

func localPath(url string) (string, bool) {
	if strings.HasPrefix(url, "file://") {
		return strings.TrimPrefix(url, "file://"), true
	}
	if strings.Contains(url, "://") {
		return "", false
	}
	return url, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
