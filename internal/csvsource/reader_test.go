package csvsource

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func readAll(t *testing.T, r *Reader) []*Chunk {
	t.Helper()
	var chunks []*Chunk
	for {
		chunk, err := r.NextChunk()
		if err == io.EOF {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestReader_Chunks(t *testing.T) {
	input := "show_id,title\n1,A\n2,B\n3,C\n4,D\n5,E\n"

	r, err := NewReader(strings.NewReader(input), Options{ChunkSize: 2})
	require.NoError(t, err)

	header, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"show_id", "title"}, header)

	chunks := readAll(t, r)
	require.Len(t, chunks, 3)
	assert.Equal(t, 2, chunks[0].Len())
	assert.Equal(t, 2, chunks[1].Len())
	assert.Equal(t, 1, chunks[2].Len())
	assert.Equal(t, []string{"5", "E"}, chunks[2].Rows[0])
	assert.Equal(t, []int{2, 3}, chunks[0].Lines)
	assert.Equal(t, []int{6}, chunks[2].Lines)
}

func TestReader_ExactMultipleOfChunkSize(t *testing.T) {
	r, err := NewReader(strings.NewReader("a\n1\n2\n3\n4\n"), Options{ChunkSize: 2})
	require.NoError(t, err)

	chunks := readAll(t, r)
	assert.Len(t, chunks, 2)
}

func TestReader_HeaderOnly(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b,c\n"), Options{ChunkSize: 10})
	require.NoError(t, err)

	header, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, header)

	_, err = r.NextChunk()
	assert.Equal(t, io.EOF, err)
}

func TestReader_EmptySource(t *testing.T) {
	r, err := NewReader(strings.NewReader(""), Options{ChunkSize: 10})
	require.NoError(t, err)

	_, err = r.Header()
	assert.ErrorIs(t, err, pgstage.ErrEmptySource)

	_, err = r.NextChunk()
	assert.ErrorIs(t, err, pgstage.ErrEmptySource)
}

func TestReader_ShortRowsArePadded(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b,c\n1,2\n"), Options{ChunkSize: 10})
	require.NoError(t, err)

	chunks := readAll(t, r)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"1", "2", ""}, chunks[0].Rows[0])
}

func TestReader_LongRowIsAnError(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b\n1,2\n1,2,3\n"), Options{ChunkSize: 10})
	require.NoError(t, err)

	_, err = r.NextChunk()
	require.Error(t, err)
	assert.ErrorIs(t, err, pgstage.ErrSourceUnreadable)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReader_MalformedQuote_Strict(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b\n\"unterminated,2\n"), Options{ChunkSize: 10, StrictQuotes: true})
	require.NoError(t, err)

	_, err = r.NextChunk()
	assert.ErrorIs(t, err, pgstage.ErrSourceUnreadable)
}

func TestReader_BareQuoteInUnquotedField(t *testing.T) {
	input := "show_id,title\ns1,The 12\" Single\ns2,Plain\n"

	r, err := NewReader(strings.NewReader(input), Options{ChunkSize: 10})
	require.NoError(t, err)

	chunks := readAll(t, r)
	require.Len(t, chunks, 1)
	assert.Equal(t, [][]string{{"s1", `The 12" Single`}, {"s2", "Plain"}}, chunks[0].Rows)
	assert.Equal(t, []int{2, 3}, chunks[0].Lines)
}

func TestReader_BareQuoteRejectedWhenStrict(t *testing.T) {
	input := "show_id,title\ns1,The 12\" Single\n"

	r, err := NewReader(strings.NewReader(input), Options{ChunkSize: 10, StrictQuotes: true})
	require.NoError(t, err)

	_, err = r.NextChunk()
	require.Error(t, err)
	assert.ErrorIs(t, err, pgstage.ErrSourceUnreadable)
	assert.Contains(t, err.Error(), "bare \"")
}

func TestReader_QuotedMultilineField(t *testing.T) {
	input := "id,description\n1,\"first line\nsecond line\"\n2,plain\n"

	r, err := NewReader(strings.NewReader(input), Options{ChunkSize: 10})
	require.NoError(t, err)

	chunks := readAll(t, r)
	require.Len(t, chunks, 1)
	assert.Equal(t, "first line\nsecond line", chunks[0].Rows[0][1])
	assert.Equal(t, []int{2, 4}, chunks[0].Lines)
}

func TestReader_Delimiter(t *testing.T) {
	r, err := NewReader(strings.NewReader("a;b\n1;x,y\n"), Options{ChunkSize: 10, Delimiter: ';'})
	require.NoError(t, err)

	chunks := readAll(t, r)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"1", "x,y"}, chunks[0].Rows[0])
}

func TestReader_StripsUTF8BOM(t *testing.T) {
	r, err := NewReader(strings.NewReader("\ufeffshow_id,type\n1,Movie\n"), Options{ChunkSize: 10})
	require.NoError(t, err)

	header, err := r.Header()
	require.NoError(t, err)
	assert.Equal(t, "show_id", header[0])
}

func TestReader_Latin1(t *testing.T) {
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, charmap.Windows1252.NewEncoder())
	_, err := w.Write([]byte("title\nAmélie\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(&buf, Options{ChunkSize: 10, Encoding: "latin1"})
	require.NoError(t, err)

	chunks := readAll(t, r)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Amélie", chunks[0].Rows[0][0])
}

func TestNewReader_Errors(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), Options{ChunkSize: 0})
	assert.ErrorIs(t, err, pgstage.ErrInvalidConfig)

	_, err = NewReader(strings.NewReader(""), Options{ChunkSize: 1, Encoding: "klingon"})
	assert.ErrorIs(t, err, pgstage.ErrInvalidConfig)
}
