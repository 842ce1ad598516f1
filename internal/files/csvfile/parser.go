package csvfile

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vvka-141/pgload/internal/files/compression"
	"github.com/vvka-141/pgload/internal/files/filesystem"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Parser reads delimited files into pgload.FileRecord values.
// Parser is safe for concurrent use as long as its filesystem provider is.
type Parser struct {
	fsProvider filesystem.FileSystemProvider
	delimiter  rune
	nullValues map[string]bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithFileSystem reads files through fsProvider instead of the OS filesystem.
func WithFileSystem(fsProvider filesystem.FileSystemProvider) Option {
	return func(p *Parser) {
		if fsProvider != nil {
			p.fsProvider = fsProvider
		}
	}
}

// WithDelimiter sets the field separator. Zero keeps pgload.DefaultDelimiter.
func WithDelimiter(r rune) Option {
	return func(p *Parser) {
		if r != 0 {
			p.delimiter = r
		}
	}
}

// WithNullValues sets the field values that are loaded as SQL NULL.
// An empty list disables NULL detection entirely.
func WithNullValues(values []string) Option {
	return func(p *Parser) {
		p.nullValues = make(map[string]bool, len(values))
		for _, v := range values {
			p.nullValues[v] = true
		}
	}
}

// NewParser creates a Parser. By default it reads from the OS filesystem,
// splits on commas and treats empty fields as NULL.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		fsProvider: filesystem.NewOSFileSystem(),
		delimiter:  pgload.DefaultDelimiter,
		nullValues: map[string]bool{"": true},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads path into a FileRecord. The first record is the header; every
// following record must have as many fields as the header. Compressed files
// are decoded by extension and a leading byte order mark is removed.
//
// Every failure is returned as *pgload.FileParseError.
func (p *Parser) Parse(path string) (*pgload.FileRecord, error) {
	rec, err := p.parse(path)
	if err != nil {
		return nil, &pgload.FileParseError{Path: path, Err: err}
	}
	return rec, nil
}

func (p *Parser) parse(path string) (*pgload.FileRecord, error) {
	f, err := p.fsProvider.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sum := sha256.New()
	raw := io.TeeReader(f, sum)

	decoded, err := compression.NewReader(raw, compression.Detect(path))
	if err != nil {
		return nil, err
	}
	defer decoded.Close()

	// BOMOverride strips a UTF-8 BOM and transcodes UTF-16 input that
	// announces itself with a BOM.
	text := transform.NewReader(decoded, unicode.BOMOverride(transform.Nop))

	r := csv.NewReader(text)
	r.Comma = p.delimiter
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file is empty, expected a header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []pgload.Row
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(pgload.Row, len(fields))
		for i, v := range fields {
			if !utf8.ValidString(v) {
				line, _ := r.FieldPos(i)
				return nil, fmt.Errorf("line %d, column %q: invalid UTF-8", line, columns[i])
			}
			if p.nullValues[v] {
				row[i] = pgload.Null()
			} else {
				row[i] = pgload.Value(v)
			}
		}
		rows = append(rows, row)
	}

	// Drain what the decoder left unread so the checksum covers the whole file.
	if _, err := io.Copy(io.Discard, raw); err != nil {
		return nil, err
	}

	return &pgload.FileRecord{
		Path:     path,
		Columns:  columns,
		Rows:     rows,
		Checksum: hex.EncodeToString(sum.Sum(nil)),
	}, nil
}

func validateHeader(header []string) ([]string, error) {
	seen := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, name := range header {
		if !utf8.ValidString(name) {
			return nil, fmt.Errorf("header column %d: invalid UTF-8", i+1)
		}
		if name == "" {
			return nil, fmt.Errorf("header column %d has no name", i+1)
		}
		if first, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q at columns %d and %d", pgload.ErrDuplicateColumn, name, first+1, i+1)
		}
		seen[name] = i
		columns[i] = name
	}
	return columns, nil
}
