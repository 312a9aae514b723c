package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgstage/internal/csvsource"
	"github.com/vvka-141/pgstage/internal/logging"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func newTestLoadService() *LoadService {
	return NewLoadService(func(*pgstage.ConnectionConfig) (pgstage.Connector, error) {
		return &mockConnector{err: pgstage.ErrConnectionFailed}, nil
	}, logging.NewNullLogger())
}

func streamCSV(t *testing.T, input string, chunkSize int, sink *recordingSink) (*pgstage.LoadResult, error) {
	t.Helper()

	reader, err := csvsource.NewReader(strings.NewReader(input), csvsource.Options{ChunkSize: chunkSize})
	require.NoError(t, err)
	header, err := reader.Header()
	require.NoError(t, err)

	result := &pgstage.LoadResult{}
	err = newTestLoadService().stream(context.Background(), reader, header, sink, result)
	return result, err
}

func TestStream_ReplaceThenAppend(t *testing.T) {
	input := "show_id,release_year\ns1,2020\ns2,2021\ns3,2019\ns4,2018\ns5,2017\n"
	sink := &recordingSink{}

	result, err := streamCSV(t, input, 2, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, sink.replaced)
	assert.Equal(t, 2, sink.appended)
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, int64(5), result.Rows)
	assert.Len(t, sink.rows, 5)
	assert.Equal(t, []pgstage.Column{
		{Name: "show_id", Type: pgstage.ColumnText},
		{Name: "release_year", Type: pgstage.ColumnBigInt},
	}, sink.columns)
	assert.Equal(t, []any{"s5", int64(2017)}, sink.rows[4])
}

func TestStream_ChunkCountProperty(t *testing.T) {
	for _, tc := range []struct{ rows, chunk, want int }{
		{1, 1, 1}, {10, 3, 4}, {9, 3, 3}, {7, 50000, 1},
	} {
		var sb strings.Builder
		sb.WriteString("n\n")
		for i := 0; i < tc.rows; i++ {
			sb.WriteString("1\n")
		}

		sink := &recordingSink{}
		result, err := streamCSV(t, sb.String(), tc.chunk, sink)
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.Chunks, "rows=%d chunk=%d", tc.rows, tc.chunk)
		assert.Equal(t, tc.want-1, sink.appended)
		assert.Equal(t, int64(tc.rows), result.Rows)
	}
}

func TestStream_HeaderOnlyStillReplaces(t *testing.T) {
	sink := &recordingSink{}

	result, err := streamCSV(t, "a,b\n", 10, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, sink.replaced)
	assert.Equal(t, 1, result.Chunks)
	assert.Zero(t, result.Rows)
	assert.Equal(t, []pgstage.Column{
		{Name: "a", Type: pgstage.ColumnText},
		{Name: "b", Type: pgstage.ColumnText},
	}, sink.columns)
}

func TestStream_TypeMismatchInLaterChunk(t *testing.T) {
	sink := &recordingSink{}

	_, err := streamCSV(t, "n\n1\n2\nthree\n", 2, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgstage.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "chunk 2")
	assert.Contains(t, err.Error(), "line 4")
	assert.Equal(t, 1, sink.replaced)
	assert.Zero(t, sink.appended)
}

func TestStream_AppendFailureStops(t *testing.T) {
	boom := errors.New("disk full")
	sink := &recordingSink{failAppend: 1, appendErr: boom}

	result, err := streamCSV(t, "n\n1\n2\n3\n", 1, sink)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, int64(1), result.Rows)
}

func TestStream_CancelledContext(t *testing.T) {
	reader, err := csvsource.NewReader(strings.NewReader("n\n1\n"), csvsource.Options{ChunkSize: 1})
	require.NoError(t, err)
	header, err := reader.Header()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	err = newTestLoadService().stream(ctx, reader, header, sink, &pgstage.LoadResult{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sink.replaced)
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, err := newTestLoadService().Load(context.Background(), pgstage.LoadConfig{})
	assert.ErrorIs(t, err, pgstage.ErrInvalidConfig)
}

func validLoadConfig(csvPath string) pgstage.LoadConfig {
	return pgstage.LoadConfig{
		CSVPath:    csvPath,
		Table:      pgstage.DefaultTable,
		Mode:       pgstage.LoadModeInsert,
		ChunkSize:  pgstage.DefaultChunkSize,
		Connection: &pgstage.ConnectionConfig{Host: "localhost", Port: 5432},
	}
}

func TestLoad_MissingFile(t *testing.T) {
	calls := 0
	svc := NewLoadService(factoryFor(&mockConnector{}, &calls), logging.NewNullLogger())

	_, err := svc.Load(context.Background(), validLoadConfig(filepath.Join(t.TempDir(), "nope.csv")))
	assert.ErrorIs(t, err, pgstage.ErrSourceUnreadable)
	assert.Zero(t, calls, "must not connect when the CSV cannot be opened")
}

func TestLoad_EmptyFileFailsBeforeConnecting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	calls := 0
	svc := NewLoadService(factoryFor(&mockConnector{}, &calls), logging.NewNullLogger())

	_, err := svc.Load(context.Background(), validLoadConfig(path))
	assert.ErrorIs(t, err, pgstage.ErrEmptySource)
	assert.Zero(t, calls)
}

func TestLoad_ConnectionFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	_, err := newTestLoadService().Load(context.Background(), validLoadConfig(path))
	assert.ErrorIs(t, err, pgstage.ErrConnectionFailed)
}

func TestNewLoadService_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewLoadService(nil, logging.NewNullLogger()) })
	assert.Panics(t, func() {
		NewLoadService(func(*pgstage.ConnectionConfig) (pgstage.Connector, error) { return nil, nil }, nil)
	})
}
