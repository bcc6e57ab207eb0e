package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-cart/catalog"
)

const seedJSON = `{
  "products": [
    {"id": 1, "title": "Tênis de Caminhada Leve Confortável", "price": 179.9, "image": "https://example.test/1.jpg"},
    {"id": 2, "title": "Tênis VR Caminhada Confortável", "price": 139.9, "image": "https://example.test/2.jpg"}
  ],
  "stock": [
    {"id": 1, "amount": 3},
    {"id": 2, "amount": 5}
  ]
}`

const seedYAML = `
products:
  - id: 7
    title: Tênis Adidas Duramo Lite
    price: 219.9
    image: https://example.test/7.jpg
stock:
  - id: 7
    amount: 1
`

func newSandboxServer(t *testing.T) (*catalog.Sandbox, *httptest.Server) {
	t.Helper()
	seed, err := catalog.ParseSeed([]byte(seedJSON))
	require.NoError(t, err)
	sb := catalog.NewSandbox(seed)
	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)
	return sb, srv
}

func TestParseSeed(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		seed, err := catalog.ParseSeed([]byte(seedJSON))
		require.NoError(t, err)
		require.Len(t, seed.Products, 2)
		assert.Equal(t, 179.9, seed.Products[0].Price)
		assert.Equal(t, 5, seed.Stock[1].Amount)
	})

	t.Run("yaml", func(t *testing.T) {
		seed, err := catalog.ParseSeed([]byte(seedYAML))
		require.NoError(t, err)
		require.Len(t, seed.Products, 1)
		assert.Equal(t, "Tênis Adidas Duramo Lite", seed.Products[0].Title)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := catalog.ParseSeed([]byte(`{"products":[{"id":1},{"id":1}]}`))
		assert.Error(t, err)
	})
}

func TestClientProductAndStock(t *testing.T) {
	_, srv := newSandboxServer(t)
	c, err := catalog.NewClient(srv.URL, catalog.WithTimeout(time.Second))
	require.NoError(t, err)
	ctx := context.Background()

	p, err := c.Product(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "Tênis de Caminhada Leve Confortável", p.Title)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("179.9")))
	assert.Zero(t, p.Amount)

	st, err := c.Stock(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, st.Amount)
}

func TestClientNotFound(t *testing.T) {
	_, srv := newSandboxServer(t)
	c, err := catalog.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Product(context.Background(), 99)
	assert.True(t, errors.Is(err, catalog.ErrNotFound), "got %v", err)

	_, err = c.Stock(context.Background(), 99)
	assert.True(t, errors.Is(err, catalog.ErrNotFound), "got %v", err)
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := catalog.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Stock(context.Background(), 1)
	var httpErr *catalog.HTTPError
	require.True(t, errors.As(err, &httpErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.False(t, errors.Is(err, catalog.ErrNotFound))
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := catalog.NewClient(url)
	require.NoError(t, err)

	_, err = c.Product(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, catalog.ErrNotFound))
}

func TestClientHeadersAndBasePath(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 4, "amount": 2}`))
	}))
	defer srv.Close()

	c, err := catalog.NewClient(srv.URL+"/api/", catalog.WithHeaders(http.Header{"X-Api-Key": {"secret"}}))
	require.NoError(t, err)

	st, err := c.Stock(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Amount)
	assert.Equal(t, "/api/stock/4", gotPath)
	assert.Equal(t, "secret", gotToken)
}

func TestClientRejectsMismatchedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 5, "title": "other"}`))
	}))
	defer srv.Close()

	c, err := catalog.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Product(context.Background(), 4)
	assert.Error(t, err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := catalog.NewClient("  ")
	assert.Error(t, err)
}

func TestSandboxSetStock(t *testing.T) {
	sb, _ := newSandboxServer(t)
	sb.SetStock(1, 0)

	st, err := sb.Stock(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, st.Amount)
}
