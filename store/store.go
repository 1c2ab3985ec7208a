// Package store persists validated orders as uniquely named JSON records.
// Records are append-only: they are never overwritten or deleted here.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/quixote-kitchen/comanda/order"
)

const (
	recordPrefix = "factura_"
	recordSuffix = ".json"
)

// Record identifies one persisted order slot.
type Record struct {
	Name string // file name within the store directory, e.g. factura_0007.json
	Path string
}

// record is the on-disk document. Field names and the parallel-array layout
// match the conversational payload so records and payloads stay interchangeable.
type record struct {
	Viandas          []string  `json:"viandas"`
	PreciosViandas   []float64 `json:"precios_viandas"`
	ModoEntrega      string    `json:"modo_entrega"`
	DireccionEntrega string    `json:"direccion_entrega,omitempty"`
	Total            float64   `json:"total"`
}

// Store writes one JSON document per order into a single directory. Naming is
// counter-based, seeded from the records already present, and guarded both by
// a mutex and by exclusive file creation so that concurrent sessions sharing
// the directory can never overwrite one another's slots.
type Store struct {
	dir  string
	mu   sync.Mutex
	next int
}

// NewStore opens (creating if needed) the record directory and seeds the
// naming counter from the records already in it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}
	s := &Store{dir: dir}
	existing, err := s.List()
	if err != nil {
		return nil, err
	}
	s.next = len(existing) + 1
	return s, nil
}

// Save persists a validated order and returns its record. The data is synced
// to disk before success is reported; failures are returned, never swallowed.
func (s *Store) Save(o *order.Order) (Record, error) {
	doc := record{
		Viandas:        make([]string, len(o.Items)),
		PreciosViandas: make([]float64, len(o.Items)),
		ModoEntrega:    string(o.Mode),
		Total:          o.DeclaredTotal,
	}
	for i, item := range o.Items {
		doc.Viandas[i] = item.Name
		doc.PreciosViandas[i] = item.Price
	}
	if o.IsDelivery() {
		doc.DireccionEntrega = o.Address
	}

	data, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode order record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		name := fmt.Sprintf("%s%04d%s", recordPrefix, s.next, recordSuffix)
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			// Another writer took the slot, try the next one.
			s.next++
			continue
		}
		if err != nil {
			return Record{}, fmt.Errorf("failed to create record %s: %w", name, err)
		}

		if _, err := f.Write(data); err == nil {
			err = f.Sync()
		}
		if err != nil {
			f.Close()
			return Record{}, fmt.Errorf("failed to write record %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return Record{}, fmt.Errorf("failed to close record %s: %w", name, err)
		}

		s.next++
		return Record{Name: name, Path: path}, nil
	}
}

// Load reads a record back into an Order.
func (s *Store) Load(name string) (*order.Order, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", name, err)
	}
	var doc record
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", name, err)
	}
	if len(doc.Viandas) != len(doc.PreciosViandas) {
		return nil, fmt.Errorf("record %s pairs %d items with %d prices", name, len(doc.Viandas), len(doc.PreciosViandas))
	}

	o := &order.Order{
		Items:         make([]order.LineItem, len(doc.Viandas)),
		Mode:          order.DeliveryMode(doc.ModoEntrega),
		DeclaredTotal: doc.Total,
	}
	for i, item := range doc.Viandas {
		o.Items[i] = order.LineItem{Name: item, Price: doc.PreciosViandas[i]}
	}
	if o.IsDelivery() {
		o.Address = doc.DireccionEntrega
	}
	return o, nil
}

// List returns the record names currently in the store, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read record directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, recordPrefix) && strings.HasSuffix(name, recordSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of records in the store.
func (s *Store) Count() (int, error) {
	names, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}
