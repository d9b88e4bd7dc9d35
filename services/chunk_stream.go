package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Chunk sizing: larger files get smaller chunks so the resident working set
// stays roughly constant regardless of file size.
const (
	minChunkRows    = 100
	maxChunkRows    = 2000
	baseChunkRows   = 1000
	mediumFileBytes = 25 << 20
	largeFileBytes  = 100 << 20
)

// ChunkSizeFor picks the chunk row count for a file. A positive override
// (the job's requested batch size) is honored within the clamp range.
func ChunkSizeFor(fileSize int64, override int) int {
	if override > 0 {
		if override < minChunkRows {
			return minChunkRows
		}
		if override > maxChunkRows {
			return maxChunkRows
		}
		return override
	}
	switch {
	case fileSize >= largeFileBytes:
		return 250
	case fileSize >= mediumFileBytes:
		return 500
	default:
		return baseChunkRows
	}
}

// rowSource is a forward-only reader of parsed rows. Progress is a
// best-effort fraction of the source consumed, in [0,1].
type rowSource interface {
	Next() (Row, error)
	Progress() float64
	Close() error
}

// ChunkStream turns a source file into a lazy, finite, non-restartable
// sequence of row chunks. Backpressure is inherent: the consumer pulls the
// next chunk only after finishing the previous one, so at most one chunk of
// rows is resident at a time. A MemoryThrottle delay is inserted between
// chunk handoffs when the process is under memory pressure.
type ChunkStream struct {
	source    rowSource
	chunkSize int
	throttle  *MemoryThrottle
	logger    *zap.Logger

	chunks   int
	rowsRead int64
	done     bool
}

// NewChunkStream opens a stream over r. The file name picks the decoder
// (xlsx/xls via spreadsheet streaming, everything else as delimited text)
// and fileSize drives chunk sizing and progress estimation. The header row
// is consumed here; a failure to read it is fatal to the job.
func NewChunkStream(r io.Reader, fileName string, fileSize int64, chunkSize int, throttle *MemoryThrottle, logger *zap.Logger) (*ChunkStream, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunkSize <= 0 {
		chunkSize = ChunkSizeFor(fileSize, 0)
	}

	var (
		source rowSource
		err    error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xls":
		source, err = newSpreadsheetSource(r)
	default:
		source, err = newDelimitedSource(r, fileSize)
	}
	if err != nil {
		return nil, err
	}

	return &ChunkStream{
		source:    source,
		chunkSize: chunkSize,
		throttle:  throttle,
		logger:    logger,
	}, nil
}

// Next returns the next chunk of rows, or io.EOF once the source is
// exhausted. The final partial chunk is flushed through the same path.
func (s *ChunkStream) Next(ctx context.Context) ([]Row, error) {
	if s.done {
		return nil, io.EOF
	}
	if s.chunks > 0 && s.throttle != nil {
		if d := s.throttle.Delay(); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	chunk := make([]Row, 0, s.chunkSize)
	for len(chunk) < s.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := s.source.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			s.done = true
			return nil, fmt.Errorf("reading source rows: %w", err)
		}
		chunk = append(chunk, row)
	}
	if len(chunk) == 0 {
		return nil, io.EOF
	}
	s.chunks++
	s.rowsRead += int64(len(chunk))
	return chunk, nil
}

// Headers returns the trimmed header row consumed at open time.
func (s *ChunkStream) Headers() []string {
	switch src := s.source.(type) {
	case *delimitedSource:
		return src.headers
	case *spreadsheetSource:
		return src.headers
	}
	return nil
}

// RowsRead is the number of data rows handed out so far.
func (s *ChunkStream) RowsRead() int64 { return s.rowsRead }

// ChunkSize is the row target per chunk.
func (s *ChunkStream) ChunkSize() int { return s.chunkSize }

// Progress is the fraction of the source consumed, in [0,1].
func (s *ChunkStream) Progress() float64 { return s.source.Progress() }

// EstimatedTotalRows extrapolates the total row count from rows read so far
// and the consumed fraction. Zero until enough of the source has been read.
func (s *ChunkStream) EstimatedTotalRows() int {
	p := s.source.Progress()
	if p <= 0 {
		return 0
	}
	est := int(float64(s.rowsRead) / p)
	if est < int(s.rowsRead) {
		est = int(s.rowsRead)
	}
	return est
}

// Close releases the underlying decoder. The stream cannot be restarted.
func (s *ChunkStream) Close() error {
	s.done = true
	return s.source.Close()
}

// --- delimited text ---

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

type delimitedSource struct {
	reader  *csv.Reader
	counter *countingReader
	size    int64
	headers []string
	line    int
}

func newDelimitedSource(r io.Reader, size int64) (*delimitedSource, error) {
	counter := &countingReader{r: r}
	br := bufio.NewReaderSize(counter, 64<<10)

	// Spreadsheet exports often lead with a UTF-8 BOM.
	if lead, err := br.Peek(3); err == nil && bytes.Equal(lead, []byte{0xEF, 0xBB, 0xBF}) {
		if _, err := br.Discard(3); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}

	delim := sniffDelimiter(br)
	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	return &delimitedSource{
		reader:  reader,
		counter: counter,
		size:    size,
		headers: headers,
		line:    1,
	}, nil
}

// sniffDelimiter inspects the first line and picks the separator with the
// most occurrences, defaulting to a comma.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	best, bestCount := ',', bytes.Count(peek, []byte{','})
	for _, candidate := range []byte{';', '\t', '|'} {
		if n := bytes.Count(peek, []byte{candidate}); n > bestCount {
			best, bestCount = rune(candidate), n
		}
	}
	return best
}

func (s *delimitedSource) Next() (Row, error) {
	for {
		rec, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				s.line++
				continue
			}
			return Row{}, err
		}
		s.line++

		empty := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		values := make(map[string]string, len(s.headers))
		for i, h := range s.headers {
			if h == "" {
				continue
			}
			if i < len(rec) {
				values[h] = rec[i]
			}
		}
		return Row{Line: s.line, Values: values}, nil
	}
}

func (s *delimitedSource) Progress() float64 {
	if s.size <= 0 {
		return 0
	}
	p := float64(s.counter.n.Load()) / float64(s.size)
	if p > 1 {
		p = 1
	}
	return p
}

func (s *delimitedSource) Close() error { return nil }

// --- spreadsheet ---

type spreadsheetSource struct {
	file    *excelize.File
	rows    *excelize.Rows
	headers []string
	line    int
	read    int64
	total   int
}

func newSpreadsheetSource(r io.Reader) (*spreadsheetSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.New("spreadsheet has no sheets")
	}
	sheet := sheets[0]

	total := 0
	if dim, err := f.GetSheetDimension(sheet); err == nil {
		total = dimensionRows(dim)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading sheet rows: %w", err)
	}
	if !rows.Next() {
		rows.Close()
		f.Close()
		return nil, errors.New("spreadsheet has no header row")
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	return &spreadsheetSource{
		file:    f,
		rows:    rows,
		headers: headers,
		line:    1,
		total:   total - 1,
	}, nil
}

// dimensionRows extracts the row count from a sheet dimension ref such as
// "A1:G5000".
func dimensionRows(dim string) int {
	parts := strings.Split(dim, ":")
	ref := parts[len(parts)-1]
	i := 0
	for i < len(ref) && (ref[i] < '0' || ref[i] > '9') {
		i++
	}
	n, err := strconv.Atoi(ref[i:])
	if err != nil {
		return 0
	}
	return n
}

func (s *spreadsheetSource) Next() (Row, error) {
	for s.rows.Next() {
		s.line++
		cells, err := s.rows.Columns()
		if err != nil {
			s.read++
			continue
		}

		empty := true
		for _, cell := range cells {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		s.read++
		values := make(map[string]string, len(s.headers))
		for i, h := range s.headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				values[h] = cells[i]
			}
		}
		return Row{Line: s.line, Values: values}, nil
	}
	return Row{}, io.EOF
}

func (s *spreadsheetSource) Progress() float64 {
	if s.total <= 0 {
		return 0
	}
	p := float64(s.read) / float64(s.total)
	if p > 1 {
		p = 1
	}
	return p
}

func (s *spreadsheetSource) Close() error {
	err := s.rows.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
