package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format identifies the encoding of a task table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for task tables in an unknown encoding.
var ErrUnsupportedFormat = errors.New("unsupported task table format")

// RawTask is one row of the task table as read from the input source.
type RawTask struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Duration     int      `json:"duration" yaml:"duration"`
	Predecessors []string `json:"predecessors" yaml:"predecessors"`
}

// FormatFromPath derives the table format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Load reads a task table from disk, picking the decoder from the extension.
func Load(path string) ([]RawTask, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task table: %w", err)
	}
	return Parse(format, bytes.NewReader(data))
}

// Parse decodes a task table in the given format and validates each row.
func Parse(format Format, r io.Reader) ([]RawTask, error) {
	var (
		tasks []RawTask
		err   error
	)
	switch format {
	case FormatCSV:
		tasks, err = parseCSV(r)
	case FormatJSON:
		tasks, err = parseJSON(r)
	case FormatYAML:
		tasks, err = parseYAML(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if err := validate(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func validate(tasks []RawTask) error {
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			return fmt.Errorf("task %d: empty id", i+1)
		}
		if seen[t.ID] {
			return fmt.Errorf("task %s: duplicate id", t.ID)
		}
		seen[t.ID] = true
		if t.Duration < 0 {
			return fmt.Errorf("task %s: negative duration %d", t.ID, t.Duration)
		}
	}
	return nil
}

// parseCSV reads the id,name,duration,predecessors table. The first row is a
// header and predecessors are separated by semicolons.
func parseCSV(r io.Reader) ([]RawTask, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	tasks := make([]RawTask, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("csv line %d: expected at least 3 fields, got %d", line, len(row))
		}
		dur, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid duration %q: %w", line, row[2], err)
		}
		task := RawTask{
			ID:       strings.TrimSpace(row[0]),
			Name:     strings.TrimSpace(row[1]),
			Duration: dur,
		}
		if len(row) > 3 {
			task.Predecessors = SplitPredecessors(row[3])
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// SplitPredecessors splits a semicolon-separated predecessor list, dropping
// blanks.
func SplitPredecessors(field string) []string {
	var ids []string
	for _, p := range strings.Split(field, ";") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// WriteCSV writes tasks back out as the simple task table Load accepts.
func WriteCSV(w io.Writer, tasks []RawTask) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "duration", "predecessors"}); err != nil {
		return err
	}
	for _, t := range tasks {
		row := []string{t.ID, t.Name, strconv.Itoa(t.Duration), strings.Join(t.Predecessors, ";")}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write task %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
