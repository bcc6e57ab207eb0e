package catalog

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"shopping-cart/httpjson"
	"shopping-cart/model"
)

// Seed is the on-disk shape of a sandbox catalog. JSON files in the
// json-server layout ({"products": [...], "stock": [...]}) parse as well.
type Seed struct {
	Products []SeedProduct `yaml:"products"`
	Stock    []SeedStock   `yaml:"stock"`
}

type SeedProduct struct {
	ID    int64   `yaml:"id"`
	Title string  `yaml:"title"`
	Price float64 `yaml:"price"`
	Image string  `yaml:"image"`
}

type SeedStock struct {
	ID     int64 `yaml:"id"`
	Amount int   `yaml:"amount"`
}

// ParseSeed decodes a YAML or JSON seed document.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, errors.Wrap(err, "catalog: parse seed")
	}
	seen := make(map[int64]struct{}, len(seed.Products))
	for _, p := range seed.Products {
		if _, dup := seen[p.ID]; dup {
			return Seed{}, errors.Errorf("catalog: duplicate product id %d in seed", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return seed, nil
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, errors.Wrap(err, "catalog: read seed")
	}
	return ParseSeed(data)
}

// Sandbox is an in-memory catalog. It implements Catalog directly and can
// serve the same data over HTTP for local development.
type Sandbox struct {
	mu       sync.RWMutex
	order    []int64
	products map[int64]model.Product
	stock    map[int64]int
}

func NewSandbox(seed Seed) *Sandbox {
	s := &Sandbox{
		products: make(map[int64]model.Product, len(seed.Products)),
		stock:    make(map[int64]int, len(seed.Stock)),
	}
	for _, p := range seed.Products {
		s.order = append(s.order, p.ID)
		s.products[p.ID] = model.Product{
			ID:    p.ID,
			Title: p.Title,
			Price: decimal.NewFromFloat(p.Price),
			Image: p.Image,
		}
	}
	for _, st := range seed.Stock {
		s.stock[st.ID] = st.Amount
	}
	return s
}

func (s *Sandbox) Product(_ context.Context, id int64) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, errors.Wrapf(ErrNotFound, "product %d", id)
	}
	return p, nil
}

func (s *Sandbox) Stock(_ context.Context, id int64) (model.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	amount, ok := s.stock[id]
	if !ok {
		return model.Stock{}, errors.Wrapf(ErrNotFound, "stock %d", id)
	}
	return model.Stock{ID: id, Amount: amount}, nil
}

// SetStock overwrites the available amount for a product.
func (s *Sandbox) SetStock(id int64, amount int) {
	s.mu.Lock()
	s.stock[id] = amount
	s.mu.Unlock()
}

func (s *Sandbox) list() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	return out
}

// Handler serves GET /products, GET /products/{id} and GET /stock/{id}.
func (s *Sandbox) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/products", s.listProducts).Methods("GET")
	r.HandleFunc("/products/{id:[0-9]+}", s.getProduct).Methods("GET")
	r.HandleFunc("/stock/{id:[0-9]+}", s.getStock).Methods("GET")
	return r
}

func (s *Sandbox) listProducts(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, s.list())
}

func (s *Sandbox) getProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	p, err := s.Product(r.Context(), id)
	if err != nil {
		httpjson.Write(w, http.StatusNotFound, map[string]string{})
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func (s *Sandbox) getStock(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	st, err := s.Stock(r.Context(), id)
	if err != nil {
		httpjson.Write(w, http.StatusNotFound, map[string]string{})
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}
