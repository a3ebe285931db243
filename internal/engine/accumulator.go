package engine

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// =============================================================================
// ACCUMULATOR
// =============================================================================

// FileInfo describes one source file handed to the accumulator.
type FileInfo struct {
	Name string

	// Rows is the number of data rows parsed from the file.
	Rows int

	// Orders is the number of distinct order ids in the file.
	Orders int

	// Added counts orders new to the session, Merged orders whose rows were
	// folded into an order already held.
	Added  int
	Merged int

	// RowsMerged counts the rows the merged orders contributed to orders
	// already held; duplicate rows are not counted.
	RowsMerged int

	// Unclassified counts the file's orders filed as unclassified.
	Unclassified int

	// Err is set when the file could not be used at all.
	Err error
}

// BucketStats counts what a bucket holds.
type BucketStats struct {
	Orders     int
	MotherRows int
	ChildRows  int
	Rows       int
}

// Stats is the per-bucket content of an accumulator.
type Stats struct {
	Buckets      map[model.Bucket]BucketStats
	Unclassified BucketStats

	// Motherless counts orders without a mother row, in any bucket.
	Motherless int
}

// Accumulator collects the orders of every source file of a session. Files
// may be added from several goroutines; each AddFile is applied atomically.
// The accumulator is the only mutable state of a run: merging and
// aggregation work on a Snapshot of it.
type Accumulator struct {
	mu sync.Mutex

	id           uuid.UUID
	fields       config.Fields
	classifier   *Classifier
	bucketOrder  []model.Bucket
	buckets      map[model.Bucket]*OrderSet
	unclassified *OrderSet
	files        []FileInfo

	logger *zap.Logger
}

// NewAccumulator returns an empty accumulator for the configuration.
// A nil logger disables logging.
func NewAccumulator(cfg *config.Config, logger *zap.Logger) *Accumulator {
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.New()
	a := &Accumulator{
		id:          id,
		fields:      cfg.Fields,
		classifier:  NewClassifier(cfg.Carriers, cfg.Fields.Tags, model.Bucket(cfg.UnclassifiedLabel)),
		bucketOrder: BucketsOf(cfg.BucketOrder),
		logger:      logger.With(zap.String("session", id.String())),
	}
	a.clear()
	return a
}

// ID identifies the session in logs.
func (a *Accumulator) ID() uuid.UUID {
	return a.id
}

func (a *Accumulator) clear() {
	a.buckets = make(map[model.Bucket]*OrderSet, len(a.bucketOrder))
	for _, b := range a.bucketOrder {
		a.buckets[b] = NewOrderSet()
	}
	a.unclassified = NewOrderSet()
	a.files = nil
}

// Reset drops every order and file.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clear()
	a.logger.Debug("accumulator reset")
}

// AddFile groups and classifies the records of one parsed source file and
// merges them into the session.
//
// Merge rules, per incoming order:
//   - a new order id is stored under its bucket;
//   - rows of an order id already held are appended to that order unless a
//     row with the same order id and line-item name is already there, and a
//     second mother row is never added;
//   - an unclassified order without a mother that already exists in a
//     carrier bucket is merged there;
//   - a motherless unclassified order whose mother arrives in a later file is
//     moved to the bucket of that mother;
//   - otherwise an order keeps the bucket it was first filed under.
func (a *Accumulator) AddFile(name string, fieldNames []string, records []model.Record) FileInfo {
	// Grouping and classification are pure; only the merge needs the lock.
	set := GroupOrders(records, fieldNames, name, a.fields)
	orders := set.Orders()
	classes := make([]model.Bucket, len(orders))
	for i, o := range orders {
		classes[i] = a.classifier.Classify(o)
		if extra := extraPayments(o, a.fields); extra > 0 {
			a.logger.Warn("order has several payment rows, keeping the first as mother",
				zap.String("file", name),
				zap.String("order", o.ID),
				zap.Int("extra", extra),
			)
		}
	}

	info := FileInfo{
		Name:   name,
		Rows:   len(records),
		Orders: len(orders),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, o := range orders {
		if classes[i] == a.classifier.Unclassified() {
			info.Unclassified++
		}
		if merged, rows := a.place(o, classes[i]); merged {
			info.Merged++
			info.RowsMerged += rows
		} else {
			info.Added++
		}
	}
	a.files = append(a.files, info)

	a.logger.Info("source merged",
		zap.String("file", name),
		zap.Int("rows", info.Rows),
		zap.Int("orders", info.Orders),
		zap.Int("added", info.Added),
		zap.Int("merged", info.Merged),
		zap.Int("rows_merged", info.RowsMerged),
	)
	if info.Unclassified > 0 {
		a.logger.Warn("orders without a carrier tag",
			zap.String("file", name),
			zap.Int("unclassified", info.Unclassified),
		)
	}

	return info
}

// RecordFailure lists a source file that could not be used. The file counts
// as processed but contributes nothing.
func (a *Accumulator) RecordFailure(name string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, FileInfo{Name: name, Err: err})
}

// place stores o, classified as bucket. It reports whether o was merged
// into an order already held, and how many of its rows were added there.
// The caller holds the lock.
func (a *Accumulator) place(o *model.Order, bucket model.Bucket) (bool, int) {
	heldIn, held := a.locate(o.ID)
	if held == nil {
		a.setFor(bucket).Put(o.Clone())
		return false, 0
	}

	var added int

	unclassified := a.classifier.Unclassified()
	switch {
	case heldIn == unclassified && bucket != unclassified && !held.HasMother():
		a.unclassified.Delete(held.ID)
		added = mergeOrder(held, o, a.fields)
		a.setFor(bucket).Put(held)
		a.logger.Debug("order classified by later mother",
			zap.String("order", o.ID),
			zap.String("bucket", string(bucket)),
		)

	case heldIn != bucket && o.HasMother():
		a.logger.Warn("order filed under two buckets, keeping the first",
			zap.String("order", o.ID),
			zap.String("kept", string(heldIn)),
			zap.String("ignored", string(bucket)),
			zap.String("file", o.SourceFile),
		)
		added = mergeOrder(held, o, a.fields)

	default:
		added = mergeOrder(held, o, a.fields)
	}

	return true, added
}

// extraPayments counts child rows that carry a payment id of their own.
func extraPayments(o *model.Order, fields config.Fields) int {
	n := 0
	for _, c := range o.Children {
		if c[fields.PaymentID] != "" {
			n++
		}
	}
	return n
}

// locate finds an order id in any bucket.
func (a *Accumulator) locate(id string) (model.Bucket, *model.Order) {
	for _, b := range a.bucketOrder {
		if o, ok := a.buckets[b].Get(id); ok {
			return b, o
		}
	}
	if o, ok := a.unclassified.Get(id); ok {
		return a.classifier.Unclassified(), o
	}
	return "", nil
}

func (a *Accumulator) setFor(bucket model.Bucket) *OrderSet {
	if set, ok := a.buckets[bucket]; ok {
		return set
	}
	return a.unclassified
}

// mergeOrder appends the rows of src to dst and returns how many it added.
// Rows already present, by order id and line-item name, are skipped. dst
// adopts the mother of src only when it has none.
func mergeOrder(dst, src *model.Order, fields config.Fields) int {
	type rowKey struct{ order, item string }
	present := make(map[rowKey]bool, dst.RowCount())
	for _, r := range dst.Rows() {
		present[rowKey{r[fields.OrderID], r[fields.LineitemName]}] = true
	}

	added := 0
	if src.HasMother() && !dst.HasMother() {
		dst.Mother = src.Mother
		present[rowKey{src.Mother[fields.OrderID], src.Mother[fields.LineitemName]}] = true
		added++
	}
	for _, r := range src.Children {
		k := rowKey{r[fields.OrderID], r[fields.LineitemName]}
		if present[k] {
			continue
		}
		present[k] = true
		dst.Children = append(dst.Children, r)
		added++
	}
	return added
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Snapshot is an immutable copy of an accumulator.
type Snapshot struct {
	SessionID    uuid.UUID
	Buckets      map[model.Bucket][]*model.Order
	Unclassified []*model.Order
	Files        []FileInfo
}

// Snapshot copies the current content. Later AddFile calls do not affect
// the returned value.
func (a *Accumulator) Snapshot() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := &Snapshot{
		SessionID: a.id,
		Buckets:   make(map[model.Bucket][]*model.Order, len(a.buckets)),
		Files:     append([]FileInfo(nil), a.files...),
	}
	for _, b := range a.bucketOrder {
		snap.Buckets[b] = cloneOrders(a.buckets[b].Orders())
	}
	snap.Unclassified = cloneOrders(a.unclassified.Orders())

	return snap
}

func cloneOrders(orders []*model.Order) []*model.Order {
	out := make([]*model.Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}

// Files returns the files added so far, in the order they were merged.
func (a *Accumulator) Files() []FileInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]FileInfo(nil), a.files...)
}

// Stats counts orders and rows per bucket.
func (a *Accumulator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := Stats{Buckets: make(map[model.Bucket]BucketStats, len(a.buckets))}
	for _, b := range a.bucketOrder {
		bs, motherless := countOrders(a.buckets[b].Orders())
		st.Buckets[b] = bs
		st.Motherless += motherless
	}
	bs, motherless := countOrders(a.unclassified.Orders())
	st.Unclassified = bs
	st.Motherless += motherless

	return st
}

func countOrders(orders []*model.Order) (BucketStats, int) {
	var bs BucketStats
	motherless := 0
	for _, o := range orders {
		bs.Orders++
		if o.HasMother() {
			bs.MotherRows++
		} else {
			motherless++
		}
		bs.ChildRows += len(o.Children)
	}
	bs.Rows = bs.MotherRows + bs.ChildRows
	return bs, motherless
}

// BucketsOf converts labels to buckets.
func BucketsOf(labels []string) []model.Bucket {
	out := make([]model.Bucket, len(labels))
	for i, l := range labels {
		out[i] = model.Bucket(l)
	}
	return out
}
