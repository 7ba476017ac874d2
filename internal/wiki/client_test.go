package wiki

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves the two-stage lookup: a search request answered
// with searchBody, then a page request answered by pageBody keyed on
// the requested page ID.
func newTestServer(t *testing.T, searchBody string, pageBody func(pageID string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("list") == "search":
			fmt.Fprint(w, searchBody)
		case q.Get("pageids") != "":
			fmt.Fprint(w, pageBody(q.Get("pageids")))
		default:
			t.Errorf("unexpected request: %s", r.URL.RawQuery)
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	}))
}

func TestFetch(t *testing.T) {
	searchBody := `{"query":{"search":[{"pageid":111}]}}`
	pageBody := func(pageID string) string {
		require.Equal(t, "111", pageID)
		return `{"query":{"pages":{"111":{
			"pageid":111,
			"title":"Python regius",
			"extract":"The ball python is a python species.",
			"fullurl":"https://en.wikipedia.org/wiki/Python_regius",
			"images":[
				{"title":"File:Ball python.jpg"},
				{"title":"File:Map-Python regius.svg"},
				{"title":"File:Commons-logo.svg"}
			]}}}}`
	}

	srv := newTestServer(t, searchBody, pageBody)
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	record, err := c.Fetch(context.Background(), "Python regius")
	require.NoError(t, err)

	assert.False(t, record.Incomplete)
	assert.Equal(t, 111, record.PageID)
	assert.Equal(t, "Python regius", record.Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Python_regius", record.URL)
	assert.Equal(t, "The ball python is a python species.", record.Extract)
	assert.Equal(t, []string{"File:Ball python.jpg"}, record.Images)
	assert.Equal(t, []string{"File:Map-Python regius.svg"}, record.Maps)
}

func TestFetch_EmptySearchFallsBack(t *testing.T) {
	searchBody := `{"query":{"search":[]}}`
	pageBody := func(pageID string) string {
		require.Equal(t, fmt.Sprintf("%d", FallbackPageID), pageID)
		return fmt.Sprintf(`{"query":{"pages":{"%d":{
			"pageid":%d,
			"title":"Python (programming language)",
			"extract":"Python is a programming language.",
			"fullurl":"https://en.wikipedia.org/wiki/Python_(programming_language)",
			"images":[]}}}}`, FallbackPageID, FallbackPageID)
	}

	srv := newTestServer(t, searchBody, pageBody)
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	record, err := c.Fetch(context.Background(), "no such snake")
	require.NoError(t, err)

	assert.Equal(t, FallbackPageID, record.PageID)
	assert.Equal(t, "Python (programming language)", record.Title)
}

func TestFetch_MissingFieldsDegradeToIncomplete(t *testing.T) {
	searchBody := `{"query":{"search":[{"pageid":222}]}}`
	pageBody := func(string) string {
		// No extract.
		return `{"query":{"pages":{"222":{
			"pageid":222,
			"title":"Vipera berus",
			"fullurl":"https://en.wikipedia.org/wiki/Vipera_berus",
			"images":[]}}}}`
	}

	srv := newTestServer(t, searchBody, pageBody)
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	record, err := c.Fetch(context.Background(), "Vipera berus")
	require.NoError(t, err, "a shape problem is not a transport failure")

	assert.True(t, record.Incomplete)
	assert.Equal(t, "Vipera berus", record.Title)
}

func TestFetch_MissingPageKey(t *testing.T) {
	searchBody := `{"query":{"search":[{"pageid":333}]}}`
	pageBody := func(string) string {
		return `{"query":{"pages":{}}}`
	}

	srv := newTestServer(t, searchBody, pageBody)
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	record, err := c.Fetch(context.Background(), "adder")
	require.NoError(t, err)
	assert.True(t, record.Incomplete)
	assert.Equal(t, 333, record.PageID)
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(&Config{BaseURL: srv.URL})
	_, err := c.Fetch(context.Background(), "adder")
	assert.Error(t, err)
}

func TestPartitionImages(t *testing.T) {
	images, maps := partitionImages([]string{
		"File:King cobra.jpg",
		"File:Map-Ophiophagus hannah.svg",
		"File:Commons-logo.svg",
		"File:OOjs UI icon edit-ltr-progressive.svg",
		"File:Cobra hood.png",
	})

	assert.Equal(t, []string{"File:King cobra.jpg", "File:Cobra hood.png"}, images)
	assert.Equal(t, []string{"File:Map-Ophiophagus hannah.svg"}, maps)
}

func TestCapExtract(t *testing.T) {
	assert.Equal(t, "abc", capExtract("abc", 10))
	assert.Equal(t, "abc", capExtract("abcdef", 3))
	assert.Equal(t, "abcdef", capExtract("abcdef", 0), "zero limit disables the cap")

	// The cut must not land inside a multi-byte rune.
	s := strings.Repeat("ü", 10)
	capped := capExtract(s, 5)
	assert.Equal(t, "üü", capped)
}
