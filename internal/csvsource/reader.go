package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Options configures a Reader.
type Options struct {
	// Delimiter is the field separator. Zero means ','.
	Delimiter rune

	// Encoding is a WHATWG encoding label ("utf-8", "latin1", "shift_jis"...).
	// Empty means UTF-8.
	Encoding string

	// ChunkSize is the maximum number of data rows returned by NextChunk.
	ChunkSize int

	// StrictQuotes rejects a bare quote in an unquoted field and an
	// unterminated quoted field. By default a bare quote is kept as text.
	StrictQuotes bool
}

// Chunk is a run of consecutive data rows, each padded to the header width.
type Chunk struct {
	Rows [][]string

	// Lines holds the 1-based line number on which each row starts.
	Lines []int
}

// Len returns the number of rows in the chunk.
func (c *Chunk) Len() int {
	return len(c.Rows)
}

// Reader streams a CSV source chunk by chunk.
type Reader struct {
	csv       *csv.Reader
	chunkSize int
	header    []string
	done      bool
}

// NewReader wraps r with the decoder for opts.Encoding and prepares the CSV parser.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", opts.ChunkSize, pgstage.ErrInvalidConfig)
	}

	decoder, err := Decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, decoder))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = !opts.StrictQuotes
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	return &Reader{csv: cr, chunkSize: opts.ChunkSize}, nil
}

// Decoder returns a transformer that decodes the named encoding to UTF-8.
// A leading byte order mark is dropped for UTF-8 input.
func Decoder(name string) (transform.Transformer, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.BOMOverride(encoding.Nop.NewDecoder()), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, pgstage.ErrInvalidConfig)
	}
	return enc.NewDecoder(), nil
}

// Header reads and normalises the header record. It must be called before NextChunk.
// An input with no records at all yields ErrEmptySource.
func (r *Reader) Header() ([]string, error) {
	if r.header != nil {
		return r.header, nil
	}

	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		r.done = true
		return nil, fmt.Errorf("no columns to parse: %w", pgstage.ErrEmptySource)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w: %w", pgstage.ErrSourceUnreadable, err)
	}

	r.header = NormalizeHeader(record)
	return r.header, nil
}

// NextChunk returns up to ChunkSize data rows. It returns io.EOF once the
// source is exhausted and no rows remain.
//
// Rows shorter than the header are padded with empty (null) cells; a row
// longer than the header is an error.
func (r *Reader) NextChunk() (*Chunk, error) {
	if r.header == nil {
		if _, err := r.Header(); err != nil {
			return nil, err
		}
	}
	if r.done {
		return nil, io.EOF
	}

	chunk := &Chunk{
		Rows:  make([][]string, 0, min(r.chunkSize, 1024)),
		Lines: make([]int, 0, min(r.chunkSize, 1024)),
	}
	width := len(r.header)

	for chunk.Len() < r.chunkSize {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			r.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed CSV: %w: %w", pgstage.ErrSourceUnreadable, err)
		}

		line, _ := r.csv.FieldPos(0)
		if len(record) > width {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d: %w",
				line, width, len(record), pgstage.ErrSourceUnreadable)
		}
		for len(record) < width {
			record = append(record, "")
		}

		chunk.Rows = append(chunk.Rows, record)
		chunk.Lines = append(chunk.Lines, line)
	}

	if chunk.Len() == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}
