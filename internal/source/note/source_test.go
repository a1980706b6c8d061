package note

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSource(baseURL string, keywords ...string) *Source {
	return New(Config{
		BaseURL:      baseURL,
		Keywords:     keywords,
		PageSize:     50,
		RequestDelay: time.Millisecond,
		BlockedAuthors: []string{
			"spammer",
		},
		Timeout: 5 * time.Second,
	}, testLogger())
}

func payload(notes ...string) string {
	joined := ""
	for i, n := range notes {
		if i > 0 {
			joined += ","
		}
		joined += n
	}
	return fmt.Sprintf(`{"data":{"notes":{"contents":[%s]}}}`, joined)
}

const goNote = `{
	"id": 1,
	"key": "n1",
	"name": "Goの並行処理入門",
	"description": "goroutineとchannelの基礎",
	"noteUrl": "https://note.com/alice/n/n1",
	"price": 0,
	"like_count": 8,
	"comment_count": 1,
	"publish_at": "2025-06-01T09:00:00+09:00",
	"hashtags": [{"name": "Go"}],
	"user": {"id": 10, "urlname": "alice", "nickname": "Alice"}
}`

const paidNote = `{
	"id": 2,
	"key": "n2",
	"name": "有料記事",
	"noteUrl": "https://note.com/bob/n/n2",
	"price": 500,
	"publish_at": "2025-06-01T09:00:00+09:00",
	"user": {"id": 11, "urlname": "bob"}
}`

const blockedNote = `{
	"id": 3,
	"key": "n3",
	"name": "spam",
	"noteUrl": "https://note.com/spammer/n/n3",
	"price": 0,
	"publish_at": "2025-06-01T09:00:00+09:00",
	"user": {"id": 12, "urlname": "spammer"}
}`

func TestFetchArticlesDedupesAndFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/searches", r.URL.Path)
		assert.Equal(t, "note", r.URL.Query().Get("context"))

		// Both keywords return the same article; it must appear once.
		switch r.URL.Query().Get("q") {
		case "go":
			io.WriteString(w, payload(goNote, paidNote))
		case "rust":
			io.WriteString(w, payload(goNote, blockedNote))
		default:
			io.WriteString(w, payload())
		}
	}))
	defer srv.Close()

	src := newSource(srv.URL, "go", "rust")
	articles, err := src.FetchArticles(context.Background())
	require.NoError(t, err)

	require.Len(t, articles, 1)
	a := articles[0]
	assert.Equal(t, "1", a.ExternalID)
	assert.Equal(t, "https://note.com/alice/n/n1", a.URL)
	assert.Equal(t, "Alice", a.AuthorName)
	assert.Equal(t, "alice", a.AuthorID)
	assert.Equal(t, 8, a.LikesCount)
	assert.Equal(t, 1, a.CommentsCount)
	assert.Equal(t, []string{"Go"}, a.TagNames)
}

func TestFetchArticlesToleratesPartialKeywordFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "go" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, payload(goNote))
	}))
	defer srv.Close()

	src := newSource(srv.URL, "go", "rust")
	articles, err := src.FetchArticles(context.Background())
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestFetchArticlesFailsWhenAllKeywordsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := newSource(srv.URL, "go", "rust")
	_, err := src.FetchArticles(context.Background())
	require.Error(t, err)
}

func TestKeywordListCappedAtSix(t *testing.T) {
	var kws []string
	for i := 0; i < 10; i++ {
		kws = append(kws, fmt.Sprintf("kw%d", i))
	}
	src := newSource("http://unused", kws...)
	assert.Len(t, src.keywords, maxKeywords)
}

func TestMapNoteConstructsMissingURL(t *testing.T) {
	n := Note{
		ID:        json.Number("42"),
		Key:       "nkey42",
		PublishAt: "2025-06-01T09:00:00+09:00",
		User:      &NoteUser{URLName: "carol"},
	}

	mapped := mapNote(n, time.Now())
	assert.Equal(t, "https://note.com/carol/n/nkey42", mapped.URL)
	assert.Equal(t, "無題", mapped.Title, "untitled notes get a placeholder title")
}

func TestMapNoteAnonymousAuthor(t *testing.T) {
	n := Note{
		ID:        json.Number("43"),
		Name:      "untitled author",
		NoteURL:   "https://note.com/x/n/n43",
		PublishAt: "2025-06-01T09:00:00+09:00",
	}

	mapped := mapNote(n, time.Now())
	assert.Equal(t, "匿名", mapped.AuthorName)
	assert.Equal(t, "43", mapped.AuthorID)
}
