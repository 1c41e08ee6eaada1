package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxFileSize bounds how much of an export is read into memory.
const DefaultMaxFileSize int64 = 10 << 20

type readerConfig struct {
	delimiter rune
	maxSize   int64
}

// ReaderOption is a functional option for ReadRecords
type ReaderOption func(*readerConfig)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ReaderOption {
	return func(c *readerConfig) {
		c.delimiter = d
	}
}

// WithMaxSize caps the accepted document size in bytes
func WithMaxSize(n int64) ReaderOption {
	return func(c *readerConfig) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// ReadRecords reads a whole export into positional records. Blank lines
// are kept as empty records so row offsets match the file. A UTF-8 BOM is
// stripped, and input that is not valid UTF-8 is decoded as Windows-1252.
func ReadRecords(r io.Reader, opts ...ReaderOption) ([][]string, error) {
	cfg := readerConfig{delimiter: ',', maxSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := io.ReadAll(io.LimitReader(r, cfg.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > cfg.maxSize {
		return nil, ErrFileTooLarge
	}

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &StructuralParseError{Reason: "file is empty", Err: ErrEmptyFile}
	}
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, &StructuralParseError{Reason: "unsupported encoding", Err: err}
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = cfg.delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var (
		records  [][]string
		consumed int64
		lineEnd  int // number of newlines before the reader's current offset
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &StructuralParseError{Reason: "malformed CSV", Rows: len(records), Err: err}
		}

		// encoding/csv drops empty lines; put them back.
		startLine, _ := reader.FieldPos(0)
		for blank := startLine - lineEnd - 1; blank > 0; blank-- {
			records = append(records, []string{})
		}
		records = append(records, record)

		offset := reader.InputOffset()
		lineEnd += bytes.Count(data[consumed:offset], []byte{'\n'})
		consumed = offset
	}
	return records, nil
}

// Cell returns the trimmed cell at col, or "" when the row is too short.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return trimCell(row[col])
}

// IsBlankRow reports whether every cell in the row is empty
func IsBlankRow(row []string) bool {
	for _, c := range row {
		if trimCell(c) != "" {
			return false
		}
	}
	return true
}

func trimCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}
