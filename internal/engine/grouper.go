package engine

import (
	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// =============================================================================
// ORDER SET
// =============================================================================

// OrderSet is a set of orders keyed by order id that remembers first-seen
// order. Iteration over an OrderSet is deterministic.
type OrderSet struct {
	ids    []string
	orders map[string]*model.Order
}

// NewOrderSet returns an empty set.
func NewOrderSet() *OrderSet {
	return &OrderSet{orders: make(map[string]*model.Order)}
}

// Get returns the order with the given id.
func (s *OrderSet) Get(id string) (*model.Order, bool) {
	o, ok := s.orders[id]
	return o, ok
}

// Put inserts or replaces an order. Replacing keeps the original position.
func (s *OrderSet) Put(o *model.Order) {
	if _, exists := s.orders[o.ID]; !exists {
		s.ids = append(s.ids, o.ID)
	}
	s.orders[o.ID] = o
}

// Delete removes an order.
func (s *OrderSet) Delete(id string) {
	if _, exists := s.orders[id]; !exists {
		return
	}
	delete(s.orders, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			break
		}
	}
}

// Len returns the number of orders.
func (s *OrderSet) Len() int {
	return len(s.ids)
}

// Orders returns the orders in first-seen order.
func (s *OrderSet) Orders() []*model.Order {
	out := make([]*model.Order, len(s.ids))
	for i, id := range s.ids {
		out[i] = s.orders[id]
	}
	return out
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupOrders partitions one file's records by order id.
//
// Records with an empty order id are dropped. Within a group, the first
// record with a non-empty payment id becomes the mother; every other record
// is a child, in file order. A group with no such record is motherless.
// GroupOrders is a pure function of its input.
func GroupOrders(records []model.Record, fieldNames []string, sourceFile string, fields config.Fields) *OrderSet {
	set := NewOrderSet()

	for _, rec := range records {
		id := rec[fields.OrderID]
		if id == "" {
			continue
		}

		order, ok := set.Get(id)
		if !ok {
			order = &model.Order{
				ID:         id,
				FieldNames: fieldNames,
				SourceFile: sourceFile,
			}
			set.Put(order)
		}

		if order.Mother == nil && rec[fields.PaymentID] != "" {
			order.Mother = rec
			continue
		}
		order.Children = append(order.Children, rec)
	}

	return set
}
