// internal/export/export.go

// Package export writes variant lists as downloadable files.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors.
var (
	ErrUnknownFormat = errors.New("export: unknown format")
)

// Format is an output file format.
type Format string

const (
	Text Format = "txt"
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
	XLSX Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{Text, CSV, JSON, YAML, XLSX}

// DefaultFilename is the download name used when the caller gives none.
const DefaultFilename = "emails.txt"

// ParseFormat maps a user-supplied name to a Format. Empty means Text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text", "plain":
		return Text, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrUnknownFormat, s, formatList())
}

// FormatFromName infers the format from a file name's extension.
func FormatFromName(name string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Filename returns "emails.<ext>".
func (f Format) Filename() string {
	return "emails." + f.Extension()
}

// ContentType returns the MIME type for HTTP downloads.
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/plain; charset=utf-8"
}

// Write encodes emails to w in format f.
//
// Text output joins the addresses with "\n" and has no trailing newline.
func Write(w io.Writer, f Format, emails iter.Seq[string]) error {
	switch f {
	case Text:
		return writeText(w, emails)
	case CSV:
		return writeCSV(w, emails)
	case JSON:
		return writeJSON(w, emails)
	case YAML:
		return writeYAML(w, emails)
	case XLSX:
		return writeXLSX(w, emails)
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
}

// Save writes emails to the named file, replacing it.
func Save(filename string, f Format, emails iter.Seq[string]) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(file, f, emails); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ServeHTTP writes emails as an attachment named filename. An empty filename
// becomes f.Filename().
func ServeHTTP(w http.ResponseWriter, f Format, filename string, emails iter.Seq[string]) error {
	if filename == "" {
		filename = f.Filename()
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return Write(w, f, emails)
}

func writeText(w io.Writer, emails iter.Seq[string]) error {
	bw := bufio.NewWriter(w)
	first := true
	for e := range emails {
		if !first {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		first = false
		if _, err := bw.WriteString(e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, emails iter.Seq[string]) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"email"}); err != nil {
		return err
	}
	for e := range emails {
		if err := writer.Write([]string{e}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, emails iter.Seq[string]) error {
	bw := bufio.NewWriter(w)
	if err := bw.WriteByte('['); err != nil {
		return err
	}
	first := true
	for e := range emails {
		if !first {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		first = false
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := bw.Write(b); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("]\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func writeYAML(w io.Writer, emails iter.Seq[string]) error {
	list := slices.Collect(emails)
	if list == nil {
		list = []string{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return err
	}
	return enc.Close()
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
