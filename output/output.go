// Package output writes harvest reports to disk. The harvester itself never
// touches files; it hands its Report to these sinks.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/use-agent/qharvest/models"
)

// unsafeChars matches filename characters that are invalid on at least one
// supported platform, plus whitespace control characters.
var unsafeChars = regexp.MustCompile(`[<>:"|?*\\/\t\n\r]`)

// SanitizeFilename makes a keyword safe to embed in a file name.
func SanitizeFilename(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, ".")
	if safe == "" {
		safe = "quora_results"
	}
	return safe
}

// csvHeader is the stable column layout; both shapes share it, with the
// other shape's columns left empty.
var csvHeader = []string{
	"seq", "title", "url", "kind",
	"follow_label", "follow_count", "views", "likes", "content",
}

// WriteCSV writes the report's records to <dir>/quora_<keyword>_<n>posts.csv
// and returns the path.
func WriteCSV(dir, keyword string, report *models.Report) (string, error) {
	path := resultPath(dir, keyword, len(report.Records), "csv")
	f, err := create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", writeErr(path, err)
	}
	for _, rec := range report.Records {
		row := []string{
			fmt.Sprintf("%d", rec.Seq), rec.Title, rec.URL, string(rec.Kind),
			"", "", "", "", rec.Content,
		}
		switch rec.Kind {
		case models.KindUnanswered:
			row[4], row[5] = rec.Unanswered.FollowLabel, rec.Unanswered.FollowCount
		case models.KindAnswered:
			row[6], row[7] = rec.Answered.ViewsRaw, rec.Answered.LikesRaw
		}
		if err := w.Write(row); err != nil {
			return "", writeErr(path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", writeErr(path, err)
	}
	return path, nil
}

// WriteJSON writes the full report (records plus termination metadata) to
// <dir>/quora_<keyword>_<n>posts.json and returns the path.
func WriteJSON(dir, keyword string, report *models.Report) (string, error) {
	path := resultPath(dir, keyword, len(report.Records), "json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", writeErr(path, err)
	}
	f, err := create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", writeErr(path, err)
	}
	return path, nil
}

func resultPath(dir, keyword string, count int, ext string) string {
	name := fmt.Sprintf("quora_%s_%dposts.%s", SanitizeFilename(keyword), count, ext)
	return filepath.Join(dir, name)
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, writeErr(path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, writeErr(path, err)
	}
	return f, nil
}

func writeErr(path string, err error) error {
	return models.NewHarvestError(
		models.ErrCodeWrite, fmt.Sprintf("failed to write %s", path), err)
}
