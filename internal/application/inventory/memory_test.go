package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-lotes/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con semántica transaccional
// ──────────────────────────────────────────────────────────────────────────────

// memStore serializa las transacciones con un mutex y restaura una copia si fn falla.
type memStore struct {
	mu sync.Mutex

	products  map[string]*entity.Product
	locations map[string]*entity.Location
	batches   map[string]*entity.Batch
	movements []*entity.StockMovement
	details   []*entity.TransferBatchDetail
	levels    map[string]*entity.StockLevel
	seq       int

	// beforeDecrement permite simular otra transacción que tocó el lote.
	beforeDecrement func(b *entity.Batch) error
	// failCommit hace fallar la transacción después de fn, como un Commit fallido.
	failCommit error
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[string]*entity.Product{},
		locations: map[string]*entity.Location{},
		batches:   map[string]*entity.Batch{},
		levels:    map[string]*entity.StockLevel{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

type memSnapshot struct {
	batches   map[string]entity.Batch
	movements []*entity.StockMovement
	details   []entity.TransferBatchDetail
	levels    map[string]entity.StockLevel
	seq       int
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		batches:   make(map[string]entity.Batch, len(s.batches)),
		movements: append([]*entity.StockMovement(nil), s.movements...),
		levels:    make(map[string]entity.StockLevel, len(s.levels)),
		seq:       s.seq,
	}
	for k, b := range s.batches {
		snap.batches[k] = *b
	}
	for _, d := range s.details {
		snap.details = append(snap.details, *d)
	}
	for k, l := range s.levels {
		snap.levels[k] = *l
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.batches = make(map[string]*entity.Batch, len(snap.batches))
	for k, b := range snap.batches {
		b := b
		s.batches[k] = &b
	}
	s.movements = snap.movements
	s.details = nil
	for _, d := range snap.details {
		d := d
		s.details = append(s.details, &d)
	}
	s.levels = make(map[string]*entity.StockLevel, len(snap.levels))
	for k, l := range snap.levels {
		l := l
		s.levels[k] = &l
	}
	s.seq = snap.seq
}

// Run implementa TxRunner.
func (s *memStore) Run(_ context.Context, fn func(repos TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	repos := TxRepos{
		Batches:   memBatches{s},
		Movements: memMovements{s},
		Details:   memDetails{s},
		Levels:    memLevels{s},
		Products:  memProducts{s},
		Locations: memLocations{s},
	}
	err := fn(repos)
	if err == nil && s.failCommit != nil {
		err = s.failCommit
	}
	if err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas directas para aserciones
// ──────────────────────────────────────────────────────────────────────────────

func (s *memStore) batch(id string) entity.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.batches[id]
}

func (s *memStore) batchesAt(productID, locationID string) []entity.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Batch
	for _, b := range s.batches {
		if b.ProductID == productID && b.LocationID == locationID {
			out = append(out, b)
		}
	}
	domaininv.SortFIFO(out)
	res := make([]entity.Batch, 0, len(out))
	for _, b := range out {
		res = append(res, *b)
	}
	return res
}

func (s *memStore) sumAt(productID, locationID string) int64 {
	var total int64
	for _, b := range s.batchesAt(productID, locationID) {
		total += b.AvailableQuantity
	}
	return total
}

func (s *memStore) level(productID, locationID string) entity.StockLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.levels[productID+"|"+locationID]
	if !ok {
		return entity.StockLevel{ProductID: productID, LocationID: locationID}
	}
	return *l
}

func (s *memStore) allMovements() []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.StockMovement, 0, len(s.movements))
	for _, m := range s.movements {
		out = append(out, *m)
	}
	return out
}

func (s *memStore) allDetails() []entity.TransferBatchDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.TransferBatchDetail, 0, len(s.details))
	for _, d := range s.details {
		out = append(out, *d)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios
// ──────────────────────────────────────────────────────────────────────────────

type memBatches struct{ s *memStore }

func (r memBatches) Create(_ context.Context, b *entity.Batch) error {
	if b.ID == "" {
		b.ID = r.s.nextID("batch")
	}
	c := *b
	r.s.batches[b.ID] = &c
	return nil
}

func (r memBatches) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r memBatches) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, id)
}

func (r memBatches) list(productID, locationID string, onlyAvailable bool) []*entity.Batch {
	var out []*entity.Batch
	for _, b := range r.s.batches {
		if b.ProductID != productID || b.LocationID != locationID {
			continue
		}
		if onlyAvailable && b.AvailableQuantity <= 0 {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	domaininv.SortFIFO(out)
	return out
}

func (r memBatches) ListAvailable(_ context.Context, productID, locationID string) ([]*entity.Batch, error) {
	return r.list(productID, locationID, true), nil
}

func (r memBatches) ListAvailableForUpdate(_ context.Context, productID, locationID string) ([]*entity.Batch, error) {
	return r.list(productID, locationID, true), nil
}

func (r memBatches) ListByProductLocation(_ context.Context, productID, locationID string) ([]*entity.Batch, error) {
	return r.list(productID, locationID, false), nil
}

func (r memBatches) FindByReferenceForUpdate(_ context.Context, productID, locationID, reference string) (*entity.Batch, error) {
	for _, b := range r.list(productID, locationID, false) {
		if b.Reference == reference {
			return b, nil
		}
	}
	return nil, nil
}

func (r memBatches) LatestForProduct(_ context.Context, productID string) (*entity.Batch, error) {
	var latest *entity.Batch
	for _, b := range r.s.batches {
		if b.ProductID != productID {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (r memBatches) Decrement(_ context.Context, id string, qty int64) (int64, error) {
	b, ok := r.s.batches[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if r.s.beforeDecrement != nil {
		if err := r.s.beforeDecrement(b); err != nil {
			return 0, err
		}
	}
	if b.AvailableQuantity < qty {
		return 0, domain.ErrConcurrentModification
	}
	b.AvailableQuantity -= qty
	return b.AvailableQuantity, nil
}

func (r memBatches) Increment(_ context.Context, id string, qty int64) (int64, error) {
	b, ok := r.s.batches[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	b.AvailableQuantity += qty
	return b.AvailableQuantity, nil
}

func (r memBatches) SumAvailable(_ context.Context, productID, locationID string) (int64, error) {
	var total int64
	for _, b := range r.s.batches {
		if b.ProductID == productID && b.LocationID == locationID {
			total += b.AvailableQuantity
		}
	}
	return total, nil
}

type memMovements struct{ s *memStore }

func (r memMovements) Create(_ context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = r.s.nextID("mov")
	}
	c := *m
	r.s.movements = append(r.s.movements, &c)
	return nil
}

func (r memMovements) ListByReference(_ context.Context, reference string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.Reference == reference {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

type memDetails struct{ s *memStore }

func (r memDetails) Create(_ context.Context, d *entity.TransferBatchDetail) error {
	if d.ID == "" {
		d.ID = r.s.nextID("detail")
	}
	c := *d
	r.s.details = append(r.s.details, &c)
	return nil
}

func (r memDetails) ListOpenByDestinationBatchForUpdate(_ context.Context, batchID string) ([]*entity.TransferBatchDetail, error) {
	var out []*entity.TransferBatchDetail
	for _, d := range r.s.details {
		if d.DestinationBatchID != nil && *d.DestinationBatchID == batchID && d.ConsumedQuantity < d.Quantity {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memDetails) ListRestorableForUpdate(_ context.Context, productID, locationID string) ([]*entity.TransferBatchDetail, error) {
	var out []*entity.TransferBatchDetail
	for _, d := range r.s.details {
		if d.ProductID == productID && d.DestinationLocationID == locationID && d.ConsumedQuantity > 0 {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memDetails) ListConsumedByDestinationBatchForUpdate(_ context.Context, batchID string) ([]*entity.TransferBatchDetail, error) {
	var out []*entity.TransferBatchDetail
	for i := len(r.s.details) - 1; i >= 0; i-- {
		d := r.s.details[i]
		if d.DestinationBatchID != nil && *d.DestinationBatchID == batchID && d.ConsumedQuantity > 0 {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memDetails) UpdateConsumption(_ context.Context, id string, consumed int64, status string) error {
	for _, d := range r.s.details {
		if d.ID == id {
			d.ConsumedQuantity = consumed
			d.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

type memLevels struct{ s *memStore }

func (r memLevels) GetForUpdate(_ context.Context, productID, locationID string) (*entity.StockLevel, error) {
	l, ok := r.s.levels[productID+"|"+locationID]
	if !ok {
		return &entity.StockLevel{ProductID: productID, LocationID: locationID}, nil
	}
	c := *l
	return &c, nil
}

func (r memLevels) Upsert(_ context.Context, l *entity.StockLevel) error {
	c := *l
	r.s.levels[l.ProductID+"|"+l.LocationID] = &c
	return nil
}

func (r memLevels) ListKeys(_ context.Context, limit, offset int) ([]entity.StockLevel, error) {
	keys := make([]string, 0, len(r.s.levels))
	for k := range r.s.levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if offset >= len(keys) {
		return nil, nil
	}
	keys = keys[offset:]
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]entity.StockLevel, 0, len(keys))
	for _, k := range keys {
		out = append(out, *r.s.levels[k])
	}
	return out, nil
}

type memProducts struct{ s *memStore }

func (r memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

type memLocations struct{ s *memStore }

func (r memLocations) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// stepClock avanza un segundo en cada llamada para que los ingresos queden ordenados.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}
