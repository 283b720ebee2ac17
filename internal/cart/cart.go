// Package cart maintains the signed-in user's cart.
//
// Each user owns one partition in the durable store, keyed by email.
// Partitions survive logout (only the in-memory view drops), so a returning
// user finds their cart where they left it. Every mutation persists before
// it publishes: a crash mid-write can never leave memory ahead of storage.
package cart

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hyunwoopark/shopfront/internal/session"
	"github.com/hyunwoopark/shopfront/pkg/collection"
	"github.com/hyunwoopark/shopfront/pkg/event"
	"github.com/hyunwoopark/shopfront/pkg/kvstore"
	"github.com/hyunwoopark/shopfront/pkg/logger"
)

// ErrAuthRequired is returned by every mutation attempted while anonymous.
// The UI is expected to have gated the action; this is the backstop.
var ErrAuthRequired = errors.New("cart: authentication required")

const partitionPrefix = "cart:"

// Item is one cart line.
type Item struct {
	UserEmail             string    `json:"userEmail"`
	ProductID             int64     `json:"productId"`
	ProductItemID         int64     `json:"productItemId"`
	Name                  string    `json:"name"`
	CategoryID            int64     `json:"categoryId"`
	CategoryCode          string    `json:"categoryCode"`
	ProductCode           string    `json:"productCode"`
	ImageURL              string    `json:"imageUrl"`
	UnitPrice             int64     `json:"unitPrice"`
	Size                  string    `json:"size"`
	Color                 string    `json:"color"`
	Quantity              int       `json:"quantity"`
	StockQuantitySnapshot int       `json:"stockQuantitySnapshot"`
	AddedAt               time.Time `json:"addedAt"`
}

// Product is the catalogue product an item is added from. Image accepts the
// three shapes the backend has been seen to send: a plain URL string, a
// JSON-encoded structure, or an already-structured object.
type Product struct {
	ID           int64
	Name         string
	CategoryID   int64
	CategoryCode string
	ProductCode  string
	Price        int64
	Image        interface{}
}

// ProductItem is the concrete size/color variant being added.
type ProductItem struct {
	ID            int64
	Size          string
	Color         string
	StockQuantity int
}

// Store holds the current user's cart.
type Store struct {
	mu      sync.Mutex
	email   string // partition owner; "" while anonymous
	items   []Item
	durable kvstore.Store
}

// New builds a Store and subscribes it to session transitions: the partition
// loads on sign-in and the in-memory view drops on sign-out.
func New(durable kvstore.Store, bus *event.Bus) *Store {
	s := &Store{durable: durable}

	bus.Listen(session.EventAuthenticated, func(payload interface{}) {
		user, ok := payload.(*session.User)
		if !ok || user == nil {
			return
		}
		s.loadPartition(user.Email)
	})
	bus.Listen(session.EventAnonymous, func(interface{}) {
		s.dropMemory()
	})

	return s
}

// Items returns a copy of the current in-memory items.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// AddItem puts quantity units of the given variant in the cart. Adding a
// variant that is already present increments its quantity instead of
// duplicating the line.
func (s *Store) AddItem(product Product, variant ProductItem, quantity int) error {
	if quantity <= 0 {
		return errors.New("cart: quantity must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.email == "" {
		return ErrAuthRequired
	}

	next := make([]Item, len(s.items))
	copy(next, s.items)

	if _, found := collection.First(next, func(i Item) bool { return i.ProductItemID == variant.ID }); found {
		for idx := range next {
			if next[idx].ProductItemID == variant.ID {
				next[idx].Quantity += quantity
				break
			}
		}
	} else {
		next = append(next, Item{
			UserEmail:             s.email,
			ProductID:             product.ID,
			ProductItemID:         variant.ID,
			Name:                  product.Name,
			CategoryID:            product.CategoryID,
			CategoryCode:          product.CategoryCode,
			ProductCode:           product.ProductCode,
			ImageURL:              ResolveImageURL(product.Image),
			UnitPrice:             product.Price,
			Size:                  variant.Size,
			Color:                 variant.Color,
			Quantity:              quantity,
			StockQuantitySnapshot: variant.StockQuantity,
			AddedAt:               time.Now(),
		})
	}

	return s.persistAndPublish(next)
}

// RemoveItem deletes the line for productItemID. Removing an absent id is a
// no-op.
func (s *Store) RemoveItem(productItemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(productItemID)
}

// SetQuantity replaces the quantity of the line for productItemID; a
// quantity of zero or less removes the line instead.
func (s *Store) SetQuantity(productItemID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.removeLocked(productItemID)
	}
	if s.email == "" {
		return ErrAuthRequired
	}

	next := make([]Item, len(s.items))
	copy(next, s.items)
	for idx := range next {
		if next[idx].ProductItemID == productItemID {
			next[idx].Quantity = quantity
			break
		}
	}

	return s.persistAndPublish(next)
}

// Clear deletes the user's partition entirely and empties memory.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.email == "" {
		return ErrAuthRequired
	}

	if err := s.durable.Delete(partitionPrefix + s.email); err != nil {
		return err
	}
	s.items = nil
	return nil
}

// TotalPrice folds unitPrice*quantity over the current items.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collection.Reduce(s.items, int64(0), func(acc int64, i Item) int64 {
		return acc + i.UnitPrice*int64(i.Quantity)
	})
}

// TotalCount folds quantity over the current items.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collection.Reduce(s.items, 0, func(acc int, i Item) int {
		return acc + i.Quantity
	})
}

// SavedPartitions lists every email with a saved cart in the durable store,
// signed-in or not. Used by the CLI to show which users have carts waiting.
func (s *Store) SavedPartitions() ([]string, error) {
	keys, err := s.durable.Keys(partitionPrefix)
	if err != nil {
		return nil, err
	}
	return collection.Map(keys, func(k string) string {
		return strings.TrimPrefix(k, partitionPrefix)
	}), nil
}

// ─── Internals ────────────────────────────────────────────────────────────────

func (s *Store) removeLocked(productItemID int64) error {
	if s.email == "" {
		return ErrAuthRequired
	}

	next := collection.Filter(s.items, func(i Item) bool { return i.ProductItemID != productItemID })
	if len(next) == len(s.items) {
		return nil // absent id: partition unchanged
	}
	return s.persistAndPublish(next)
}

// persistAndPublish writes the partition before replacing memory. Callers
// hold the lock. On a storage failure the in-memory state is untouched.
func (s *Store) persistAndPublish(next []Item) error {
	if next == nil {
		next = []Item{}
	}
	if err := s.durable.Set(partitionPrefix+s.email, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

func (s *Store) loadPartition(email string) {
	var items []Item
	ok, err := s.durable.Get(partitionPrefix+email, &items)
	if err != nil {
		logger.Warn("cart: loading partition failed", "email", email, "error", err)
		items = nil
	}
	if !ok {
		items = nil
	}

	s.mu.Lock()
	s.email = email
	s.items = items
	s.mu.Unlock()
}

func (s *Store) dropMemory() {
	s.mu.Lock()
	s.email = ""
	s.items = nil
	s.mu.Unlock()
}
