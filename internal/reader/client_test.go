package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestClient — клиент поверх httptest-сервера.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.Client(), srv.URL, "test-token", 0)
}

func TestSubscriptions_OK(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotOutput string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotOutput = r.URL.Query().Get("output")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subscriptions":[
			{"id":"feed/1","title":"One","htmlUrl":"https://one.example","iconUrl":"https://one.example/i.png",
			 "categories":[{"id":"user/-/label/favs","label":"favs"}]},
			{"id":"feed/2","title":"Two","htmlUrl":"https://two.example","iconUrl":"","categories":[]}
		]}`))
	})

	subs, err := c.Subscriptions(context.Background())
	require.NoError(t, err)

	require.Equal(t, "/subscription/list", gotPath)
	require.Equal(t, "GoogleLogin auth=test-token", gotAuth)
	require.Equal(t, "json", gotOutput)

	require.Len(t, subs, 2)
	require.Equal(t, "feed/1", subs[0].ID)
	require.Equal(t, "One", subs[0].Title)
	require.Equal(t, "favs", subs[0].Categories[0].Label)
}

func TestStreamContents_OK(t *testing.T) {
	t.Parallel()

	var gotPath, gotN string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotN = r.URL.Query().Get("n")

		_, _ = w.Write([]byte(`{"items":[{"id":"i1","title":"T","published":1697100000}]}`))
	})

	items, err := c.StreamContents(context.Background(), "12", 5)
	require.NoError(t, err)

	require.Equal(t, "/stream/contents/feed/12", gotPath)
	require.Equal(t, "5", gotN)

	require.Len(t, items, 1)
	require.Equal(t, "i1", items[0].ID)
	require.EqualValues(t, 1697100000, items[0].Published)
}

// Отсутствующее поле items у апстрима — пустой срез, не nil и не ошибка.
func TestStreamContents_MissingItems_EmptySlice(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	items, err := c.StreamContents(context.Background(), "7", 1)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestStreamContents_BadStatus_ErrRequest(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.StreamContents(context.Background(), "7", 1)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRequest)
}

func TestStreamContents_MalformedBody_ErrDecode(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [`))
	})

	_, err := c.StreamContents(context.Background(), "7", 1)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDecode)
}

func TestGet_Timeout_ErrTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := New(&http.Client{Timeout: 20 * time.Millisecond}, srv.URL, "tok", 0)

	_, err := c.StreamContents(context.Background(), "7", 1)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestGet_ContextDeadline_ErrTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.Client(), srv.URL, "tok", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Subscriptions(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestForward_ReturnsBodyVerbatim(t *testing.T) {
	t.Parallel()

	const body = `{"tags":[{"id":"user/-/label/favs"}]}`

	var gotPath string
	var gotQuery url.Values

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(body))
	})

	q := url.Values{}
	q.Set("output", "json")

	raw, err := c.Forward(context.Background(), "marker/tag/lists", q)
	require.NoError(t, err)

	require.Equal(t, "/marker/tag/lists", gotPath)
	require.Equal(t, "json", gotQuery.Get("output"))
	require.JSONEq(t, body, string(raw))
}

func TestNew_NilClient_UsesTimeout(t *testing.T) {
	t.Parallel()

	c := New(nil, "https://rss.example.com", "tok", 3*time.Second)
	require.Equal(t, 3*time.Second, c.client.Timeout)

	c = New(nil, "https://rss.example.com", "tok", 0)
	require.Equal(t, 10*time.Second, c.client.Timeout)
}
