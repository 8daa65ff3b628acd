package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_ReadFile_PlainText(t *testing.T) {
	e := New()

	data := []byte("Introduction\nThe system stores documents. Each document has sentences. Done here.\n")
	out, err := e.ReadFile(context.Background(), "notes.txt", data)

	require.NoError(t, err)
	require.Len(t, out.Sentences, 4)
	assert.Equal(t, "Introduction", out.Sentences[0])
	assert.True(t, out.IsHeaders[0])
	assert.Equal(t, "The system stores documents.", out.Sentences[1])
	assert.False(t, out.IsHeaders[1])
	assert.Len(t, out.PageNumbers, 4)
	assert.Len(t, out.IsTables, 4)
}

func TestExtractor_ReadFile_TableRow(t *testing.T) {
	e := New()

	data := []byte("Name | Amount | Date\nalpha | 10 | 2024-01-02\n")
	out, err := e.ReadFile(context.Background(), "table.txt", data)

	require.NoError(t, err)
	require.Len(t, out.Sentences, 2)
	assert.True(t, out.IsTables[0])
	assert.True(t, out.IsTables[1])
	assert.False(t, out.IsHeaders[0])
}

func TestExtractor_ReadFile_Empty(t *testing.T) {
	e := New()

	out, err := e.ReadFile(context.Background(), "empty.txt", []byte("   \n\n  "))

	require.NoError(t, err)
	assert.Empty(t, out.Sentences)
}

func TestExtractor_ReadFile_InvalidPDF(t *testing.T) {
	e := New()

	_, err := e.ReadFile(context.Background(), "broken.pdf", []byte("not a pdf"))

	assert.Error(t, err)
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("The cat sat. The dog ran. It was 3.5 meters away.")

	require.Len(t, sentences, 3)
	assert.Equal(t, "The cat sat.", sentences[0])
	assert.Equal(t, "The dog ran.", sentences[1])
	assert.Equal(t, "It was 3.5 meters away.", sentences[2])
}

func TestIsHeaderLine(t *testing.T) {
	assert.True(t, isHeaderLine("Quarterly Results"))
	assert.False(t, isHeaderLine("This line ends with a period."))
	assert.False(t, isHeaderLine("a line with far too many words to plausibly be any kind of section header at all here"))
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote document body"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	data, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "remote document body", string(data))
}

func TestHTTPFetcher_Fetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}
