package common

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ReadFolderToFileMap reads every regular file of a folder into a name -> content map.
func ReadFolderToFileMap(folderPath string) (map[string]string, error) {
	filesMap := make(map[string]string)
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filePath := filepath.Join(folderPath, entry.Name())
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		filesMap[entry.Name()] = string(content)
	}
	return filesMap, nil
}

// FormatFloat renders a float the way Python's repr does for the values we
// produce: integral values keep a trailing ".0".
func FormatFloat(value float64) string {
	if math.IsNaN(value) {
		return "nan"
	}
	if math.IsInf(value, 0) {
		if value > 0 {
			return "inf"
		}
		return "-inf"
	}
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if math.Abs(value) >= 1e16 || (value != 0 && math.Abs(value) < 1e-4) {
		s = strconv.FormatFloat(value, 'g', -1, 64)
	}
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// FormatOptionalFloat renders nil as an empty cell.
func FormatOptionalFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return FormatFloat(*value)
}

func FormatOptionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Truncate keeps the first limit characters (not bytes) of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// ErrorSummary picks the error text of a failed run: stderr first, stdout when
// stderr is empty, cut to limit characters.
func ErrorSummary(stdout string, stderr string, limit int, trim bool) string {
	if trim {
		if summary := Truncate(strings.TrimSpace(stderr), limit); summary != "" {
			return summary
		}
		return Truncate(strings.TrimSpace(stdout), limit)
	}
	if stderr != "" {
		return Truncate(stderr, limit)
	}
	return Truncate(stdout, limit)
}

// DebugSnippet returns the head of text, plus its tail when the text is longer
// than twice n.
func DebugSnippet(text string, n int) string {
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	snippet := string(runes[:n])
	if len(runes) > n*2 {
		snippet += "\n...\n" + string(runes[len(runes)-n:])
	}
	return snippet
}

// Timestamp renders t like Python's isoformat: microseconds only when non-zero.
func Timestamp(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(TIMESTAMP_LAYOUT_SECONDS)
	}
	return t.Format(TIMESTAMP_LAYOUT)
}

func FileTimestamp(t time.Time) string {
	return t.Format(FILE_TIMESTAMP_LAYOUT)
}

// EnsureDir creates dir (and parents) if needed.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
