// backend/src/parsers/paymentcsv/parser.go
package paymentcsv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParsedFile is the raw output of one uploaded CSV: the header row in file
// order plus every data row. Values are only ever read through an Accessor
// built from the headers.
type ParsedFile struct {
	Headers []string
	Rows    [][]string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads a UTF-8 CSV export (comma- or tab-delimited, header row
// required) into a ParsedFile. Blank lines are skipped. A file with no data
// rows is a file-level error; per-row problems are left to later stages.
func Parse(file io.Reader) (*ParsedFile, error) {
	buffered := bufio.NewReader(file)

	// Strip a UTF-8 byte-order-mark if present, common in Excel exports.
	if head, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := buffered.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("payment csv: failed to skip BOM: %w", err)
		}
	}

	delimiter, err := sniffDelimiter(buffered)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("payment csv: failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("payment csv: failed to read row: %w", err)
		}
		if isBlankRow(record) {
			continue
		}
		rows = append(rows, record)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("payment csv: file contains no data rows")
	}

	return &ParsedFile{Headers: headers, Rows: rows}, nil
}

// sniffDelimiter peeks at the header line and decides between tab and comma.
// Tab wins when present at all, since tab-delimited exports rarely contain
// literal tabs inside values while comma-delimited ones often contain commas.
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	const peekSize = 4096
	head, err := r.Peek(peekSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("payment csv: failed to inspect file: %w", err)
	}
	line := string(head)
	if idx := strings.IndexAny(line, "\r\n"); idx >= 0 {
		line = line[:idx]
	}
	if strings.ContainsRune(line, '\t') {
		return '\t', nil
	}
	return ',', nil
}

func isBlankRow(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
