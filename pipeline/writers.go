package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/go-scrape-laptops/models"
)

// Output formats accepted by NewWriter.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatDual = "dual"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"Model", "Description", "Price", "Rating", "Reviews"}

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(laptops []models.Laptop) error
	Close() error
}

// NewWriter opens a writer for format at filename, truncating existing files.
// The dual format writes filename as CSV and a .json sibling as JSON Lines.
func NewWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(filename)
	case FormatJSON:
		return NewJSONWriter(filename)
	case FormatDual:
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Export writes all laptops to filename in one pass. The file is closed on
// every return path.
func Export(format, filename string, laptops []models.Laptop) (err error) {
	w, err := NewWriter(format, filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return w.Write(laptops)
}

// ExportCSV writes the header and one row per laptop to filename. Rows end in
// CRLF, so a carriage return inside a field is written as a plain line feed:
// "\r\n" and a lone "\r" both read back as "\n".
func ExportCSV(filename string, laptops []models.Laptop) error {
	return Export(FormatCSV, filename, laptops)
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, &FilesystemError{Op: "create", Path: filename, Err: err}
	}

	writer := csv.NewWriter(f)
	writer.UseCRLF = true
	if err := writer.Write(CSVHeader); err != nil {
		f.Close()
		return nil, &FilesystemError{Op: "write header", Path: filename, Err: err}
	}

	return &CSVWriter{
		path:   filename,
		file:   f,
		writer: writer,
	}, nil
}

// Write appends laptops to the CSV output.
func (cw *CSVWriter) Write(laptops []models.Laptop) error {
	for _, laptop := range laptops {
		record := []string{
			csvField(laptop.Title),
			csvField(laptop.Description),
			csvField(laptop.Price),
			csvField(laptop.Rating),
			csvField(laptop.Reviews),
		}
		if err := cw.writer.Write(record); err != nil {
			return &FilesystemError{Op: "write", Path: cw.path, Err: err}
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return &FilesystemError{Op: "flush", Path: cw.path, Err: err}
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	flushErr := cw.writer.Error()
	if err := cw.file.Close(); err != nil {
		return &FilesystemError{Op: "close", Path: cw.path, Err: err}
	}
	if flushErr != nil {
		return &FilesystemError{Op: "flush", Path: cw.path, Err: flushErr}
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	path    string
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, &FilesystemError{Op: "create", Path: filename, Err: err}
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		path:    filename,
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends laptops in JSONL format.
func (jw *JSONWriter) Write(laptops []models.Laptop) error {
	for _, laptop := range laptops {
		if err := jw.encoder.Encode(laptop); err != nil {
			return &FilesystemError{Op: "encode", Path: jw.path, Err: err}
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return &FilesystemError{Op: "flush", Path: jw.path, Err: err}
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	flushErr := jw.writer.Flush()
	if err := jw.file.Close(); err != nil {
		return &FilesystemError{Op: "close", Path: jw.path, Err: err}
	}
	if flushErr != nil {
		return &FilesystemError{Op: "flush", Path: jw.path, Err: flushErr}
	}
	return nil
}

var carriageReturns = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// csvField folds carriage returns into line feeds. With UseCRLF set,
// encoding/csv drops a lone CR inside a quoted field.
func csvField(s string) string {
	return carriageReturns.Replace(s)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}
	return nil
}
