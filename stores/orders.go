package stores

import (
	"sync"

	"farmdash/farm"
)

// OrderSelection holds the purchase orders picked as the origin of a new plan.
// TotalQuantity is always recomputed from the selection, never adjusted in place.
type OrderSelection struct {
	mu            sync.RWMutex
	orders        []farm.Order
	selected      []farm.Order
	plantID       *int64
	totalQuantity float64
}

// NewOrderSelection creates an empty order selection store
func NewOrderSelection() *OrderSelection {
	return &OrderSelection{}
}

// Orders returns a copy of the available orders
func (s *OrderSelection) Orders() []farm.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]farm.Order(nil), s.orders...)
}

// Selected returns a copy of the current selection
func (s *OrderSelection) Selected() []farm.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]farm.Order(nil), s.selected...)
}

// PlantID returns the selected plant, nil when none is set
func (s *OrderSelection) PlantID() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plantID == nil {
		return nil
	}
	id := *s.plantID
	return &id
}

// TotalQuantity is the sum of quantities over the selection
func (s *OrderSelection) TotalQuantity() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalQuantity
}

// SetOrders replaces the list of available orders
func (s *OrderSelection) SetOrders(orders []farm.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]farm.Order(nil), orders...)
}

// SetSelection replaces the whole selection
func (s *OrderSelection) SetSelection(selected []farm.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append([]farm.Order(nil), selected...)
	s.recompute()
}

// SetPlant sets the plant the selected orders are for
func (s *OrderSelection) SetPlant(plantID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plantID == nil {
		s.plantID = nil
		return
	}
	id := *plantID
	s.plantID = &id
}

// Add appends order to the selection. Duplicates are not filtered.
func (s *OrderSelection) Add(order farm.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append(s.selected, order)
	s.recompute()
}

// Remove drops the order with the given id from the selection, if present
func (s *OrderSelection) Remove(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.selected[:0:0]
	for _, o := range s.selected {
		if o.ID != orderID {
			kept = append(kept, o)
		}
	}
	s.selected = kept
	s.recompute()
}

// Clear resets orders, selection, plant and total
func (s *OrderSelection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = nil
	s.selected = nil
	s.plantID = nil
	s.recompute()
}

// recompute must be called with the write lock held
func (s *OrderSelection) recompute() {
	var total float64
	for _, o := range s.selected {
		total += o.Quantity
	}
	s.totalQuantity = total
}
