package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vvka-141/pgstage/internal/checksum"
	"github.com/vvka-141/pgstage/internal/csvsource"
	"github.com/vvka-141/pgstage/internal/staging"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

type sinkFactory func(db staging.TxBeginner, table string, mode pgstage.LoadMode) (staging.Sink, error)

func newPostgresSink(db staging.TxBeginner, table string, mode pgstage.LoadMode) (staging.Sink, error) {
	return staging.NewPostgresSink(db, table, mode)
}

// LoadService implements the Loader interface.
// Thread-Safety: NOT safe for concurrent Load() calls on the same instance.
type LoadService struct {
	connectorFactory pgstage.ConnectorFactory
	logger           pgstage.Logger
	newSink          sinkFactory
}

// NewLoadService creates a LoadService. It panics on nil dependencies, which
// are wiring mistakes rather than runtime conditions.
func NewLoadService(connectorFactory pgstage.ConnectorFactory, logger pgstage.Logger) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &LoadService{
		connectorFactory: connectorFactory,
		logger:           logger,
		newSink:          newPostgresSink,
	}
}

// Load streams config.CSVPath into config.Table: the first chunk replaces the
// table, every later chunk is appended. Chunks written before a failure stay
// committed.
func (s *LoadService) Load(ctx context.Context, config pgstage.LoadConfig) (*pgstage.LoadResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid load configuration: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	started := time.Now()
	result := &pgstage.LoadResult{
		RunID:   uuid.New(),
		CSVPath: config.CSVPath,
		Table:   config.Table,
		Mode:    config.Mode,
	}

	file, err := os.Open(config.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w: %w", pgstage.ErrSourceUnreadable, err)
	}
	defer file.Close()

	digest := checksum.NewReader(file)
	reader, err := csvsource.NewReader(digest, csvsource.Options{
		Delimiter:    config.Delimiter,
		Encoding:     config.Encoding,
		StrictQuotes: config.StrictQuotes,
		ChunkSize:    config.ChunkSize,
	})
	if err != nil {
		return nil, err
	}

	header, err := reader.Header()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.CSVPath, err)
	}
	s.logger.Verbose("Header: %d columns %v", len(header), header)

	connector, err := s.connectorFactory(config.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()
	s.logger.Verbose("Connected to %s:%d/%s", config.Connection.Host, config.Connection.Port, config.Connection.Database)

	sink, err := s.newSink(pool, config.Table, config.Mode)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loading %s into %s (run %s, mode %s, chunksize %d)",
		config.CSVPath, config.Table, result.RunID, config.Mode, config.ChunkSize)

	if err := s.stream(ctx, reader, header, sink, result); err != nil {
		return nil, err
	}

	result.SourceSHA256 = digest.Sum()
	result.SourceBytes = digest.BytesRead()
	result.Elapsed = time.Since(started)
	s.logger.Verbose("Source sha256 %s (%d bytes)", result.SourceSHA256, result.SourceBytes)
	s.logger.Info("Loaded %d rows in %d chunks (%s)", result.Rows, result.Chunks, result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// stream writes every chunk from reader to sink and fills in result.
func (s *LoadService) stream(ctx context.Context, reader *csvsource.Reader, header []string, sink staging.Sink, result *pgstage.LoadResult) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("load interrupted after %d chunks: %w", result.Chunks, err)
		}

		chunk, err := reader.NextChunk()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if result.Chunks == 0 {
			result.Columns = csvsource.InferSchema(header, chunk.Rows)
			s.logSchema(result.Columns)
		}

		rows, err := csvsource.ConvertChunk(result.Columns, chunk)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", result.Chunks+1, err)
		}

		if result.Chunks == 0 {
			err = sink.Replace(ctx, result.Columns, rows)
		} else {
			err = sink.Append(ctx, rows)
		}
		if err != nil {
			return fmt.Errorf("chunk %d: %w", result.Chunks+1, err)
		}

		result.Chunks++
		result.Rows += int64(len(rows))
		s.logger.Verbose("Chunk %d: %d rows written (total %d)", result.Chunks, len(rows), result.Rows)
	}

	if result.Chunks == 0 {
		// Header only: the table is still replaced, with no rows.
		result.Columns = csvsource.InferSchema(header, nil)
		s.logSchema(result.Columns)
		if err := sink.Replace(ctx, result.Columns, nil); err != nil {
			return fmt.Errorf("chunk 1: %w", err)
		}
		result.Chunks = 1
	}

	return nil
}

func (s *LoadService) logSchema(columns []pgstage.Column) {
	for _, col := range columns {
		s.logger.Verbose("  %s %s", col.Name, col.Type)
	}
}

var _ pgstage.Loader = (*LoadService)(nil)
