// Package scenario reads the simulated request stream and historical quotes
// from CSV, and writes one result row per processed request.
package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// RequestDateLayout is the month/day/two-digit-year format of request_date.
const RequestDateLayout = "1/2/06"

var ErrMissingColumn = errors.New("csv column is missing")

type Request struct {
	Row      int
	Job      string
	Event    string
	NeedSize string
	Mood     string
	Text     string
	Date     time.Time
}

// LoadRequests reads the request CSV. Rows with an unparseable date are
// dropped and the rest are sorted by date, keeping file order within a day.
func LoadRequests(r io.Reader) ([]Request, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	col, err := columns(header, "request", "request_date")
	if err != nil {
		return nil, err
	}

	out := make([]Request, 0, len(rows))
	for i, row := range rows {
		raw := field(row, col, "request_date")
		date, err := time.Parse(RequestDateLayout, raw)
		if err != nil {
			log.Warn().Int("row", i+1).Str("request_date", raw).Msg("dropping request with invalid date")
			continue
		}
		out = append(out, Request{
			Row:      i + 1,
			Job:      field(row, col, "job"),
			Event:    field(row, col, "event"),
			NeedSize: field(row, col, "need_size"),
			Mood:     field(row, col, "mood"),
			Text:     field(row, col, "request"),
			Date:     date.UTC(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func LoadRequestsFile(path string) ([]Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requests: %w", err)
	}
	defer f.Close()
	return LoadRequests(f)
}

// Span returns the first and last request dates.
func Span(reqs []Request) (time.Time, time.Time, bool) {
	if len(reqs) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return reqs[0].Date, reqs[len(reqs)-1].Date, true
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: file has no header", ErrMissingColumn)
	}
	return records[0], records[1:], nil
}

func columns(header []string, required ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return col, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
