package marketplace

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const maxFolderNameLen = 60

var imageClient = &http.Client{Timeout: 30 * time.Second}

// FilterImages drops the first discovered photo when at least two exist — the
// gallery always repeats the second image as a leading thumbnail. Zero or one
// source passes through untouched.
func FilterImages(srcs []string) []string {
	if len(srcs) >= 2 {
		srcs = srcs[1:]
	}
	out := make([]string, 0, len(srcs))
	return append(out, srcs...)
}

// SanitizeFolderName turns a listing title into a safe directory name:
// everything but letters, digits, spaces, underscores and hyphens is dropped,
// the result is bounded in length and spaces become underscores.
func SanitizeFolderName(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}

	runes := []rune(strings.TrimSpace(b.String()))
	if len(runes) > maxFolderNameLen {
		runes = runes[:maxFolderNameLen]
	}
	return strings.ReplaceAll(strings.TrimSpace(string(runes)), " ", "_")
}

// downloadImages fetches every harvested photo into a folder named after the
// listing. One failed download is logged and skipped; the rest proceed.
func (e *Extractor) downloadImages(title string, srcs []string) {
	folder := SanitizeFolderName(title)
	if folder == "" {
		folder = "untitled"
	}
	dir := filepath.Join(e.cfg.ImageDir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.logger.Warn("[marketplace] Could not create image dir %s: %v", dir, err)
		return
	}

	for i, src := range srcs {
		path := filepath.Join(dir, fmt.Sprintf("photo_%02d.jpg", i+1))
		if err := downloadImage(src, path); err != nil {
			e.logger.Warn("[marketplace] Image %d download failed: %v", i+1, err)
			continue
		}
		e.logger.Debug("[marketplace] Saved image %s", path)
	}
}

func downloadImage(src, path string) error {
	resp, err := imageClient.Get(src)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
