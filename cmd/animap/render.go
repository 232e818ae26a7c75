package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"animap/internal/media"
)

const (
	ansiReset = "\x1b[0m"
	ansiBlue  = "\x1b[34m"
	ansiDim   = "\x1b[2m"
)

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func dim(value string, colorize bool) string {
	if !colorize || value == "" {
		return value
	}
	return ansiDim + value + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// entityRows renders catalog entities as id/title/format/status rows.
func entityRows(entities []media.CanonicalEntity) [][]string {
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		count := e.Episodes
		if e.Type == media.Manga {
			count = e.Chapters
		}
		countText := ""
		if count > 0 {
			countText = strconv.Itoa(count)
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.PreferredTitle(),
			e.Format,
			e.Status,
			countText,
		})
	}
	return rows
}

var entityHeaders = []string{"ID", "Title", "Format", "Status", "Count"}

var entityAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}

// recordRows flattens records into one row per connector; records without
// connectors still get a row.
func recordRows(records []media.ResolvedRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		id := strconv.FormatInt(rec.CanonicalID, 10)
		title := rec.Snapshot.PreferredTitle()
		if len(rec.Connectors) == 0 {
			rows = append(rows, []string{id, title, "-", "", ""})
			continue
		}
		for i, conn := range rec.Connectors {
			if i > 0 {
				id, title = "", ""
			}
			rows = append(rows, []string{id, title, conn.Locator, formatScore(conn.Similarity.Score), yesNo(conn.Similarity.IsMatch)})
		}
	}
	return rows
}

var recordHeaders = []string{"ID", "Title", "Locator", "Score", "Match"}

var recordAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}
