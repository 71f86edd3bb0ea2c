package worker

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinha-ledger/internal/domain"
	"rinha-ledger/internal/repository"
	"rinha-ledger/internal/repository/memory"
)

// newDistinctPool gives every slot its own store so bindings can be told apart.
func newDistinctPool(t *testing.T, size int) *repository.Pool {
	t.Helper()

	factory := func(context.Context) (domain.LedgerStore, error) {
		return memory.New(), nil
	}

	pool, err := repository.NewPool(context.Background(), factory, size)
	require.NoError(t, err)
	return pool
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBind_SequentialIDsWithModuloAffinity(t *testing.T) {
	pool := newDistinctPool(t, 3)
	binder := NewBinder(pool, discardLogger(), nil)

	var workers []*Worker
	for want := uint64(0); want < 7; want++ {
		w := binder.Bind()
		assert.Equal(t, want, w.ID)
		assert.NotNil(t, w.Ledger)
		assert.Same(t, pool.Get(want), w.Conn)
		workers = append(workers, w)
	}

	assert.NotSame(t, workers[0].Conn, workers[1].Conn)
	assert.NotSame(t, workers[1].Conn, workers[2].Conn)
	assert.Same(t, workers[0].Conn, workers[3].Conn)
	assert.Same(t, workers[1].Conn, workers[4].Conn)
	assert.Same(t, workers[0].Conn, workers[6].Conn)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	w := &Worker{ID: 9}
	got, ok := FromContext(NewContext(context.Background(), w))
	require.True(t, ok)
	assert.Same(t, w, got)
}

func TestConnContext_OneWorkerPerConnection(t *testing.T) {
	pool := newDistinctPool(t, 2)
	binder := NewBinder(pool, discardLogger(), nil)

	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w, ok := FromContext(r.Context())
		if !ok {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		rw.Header().Set("X-Worker-ID", strconv.FormatUint(w.ID, 10))
	}))
	ts.Config.ConnContext = binder.ConnContext
	ts.Config.ConnState = binder.ConnState
	ts.Start()
	defer ts.Close()

	// Requests on a kept-alive connection reuse its worker.
	client := ts.Client()
	first := get(t, client, ts.URL)
	second := get(t, client, ts.URL)
	assert.Equal(t, first, second)

	// A fresh connection gets the next worker.
	other := &http.Client{Transport: &http.Transport{}}
	third := get(t, other, ts.URL)
	assert.NotEqual(t, first, third)
}

func get(t *testing.T, c *http.Client, url string) string {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return resp.Header.Get("X-Worker-ID")
}
