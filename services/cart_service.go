package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultMockupID stands in for the mockup part of a custom item's cart id
const defaultMockupID = "default"

// cartStateIdleTTL is how long an untouched in-memory cart is kept
const cartStateIdleTTL = 30 * time.Minute

// Cart outcomes reported to the client
const (
	OutcomeAdded         = "added"
	OutcomeIncremented   = "quantity_increased"
	OutcomeAlreadyInCart = "already_in_cart"
	OutcomeRemoved       = "removed"
	OutcomeUpdated       = "updated"
	OutcomeCleared       = "cleared"
	OutcomeUnchanged     = "unchanged"
)

var errVersionConflict = errors.New("cart version conflict")

// CartItemInput is the data needed to put one line in the cart
type CartItemInput struct {
	ProductID       string
	CustomRequestID string
	CustomMockupID  string
	Name            string
	Price           decimal.Decimal
	ImageURL        string
	Size            string
	Color           string
	Quantity        int
	IsOneOfOne      bool
	IsCustom        bool
	Available       *bool
}

// CartID returns the composite id of the line the input would create
func (in CartItemInput) CartID() string {
	if in.ProductID != "" {
		return fmt.Sprintf("%s-%s-%s", in.ProductID, in.Size, in.Color)
	}
	mockup := in.CustomMockupID
	if mockup == "" {
		mockup = defaultMockupID
	}
	return fmt.Sprintf("%s-%s-%s-%s", in.CustomRequestID, mockup, in.Size, in.Color)
}

// Cart is a snapshot of one user's cart
type Cart struct {
	UserID  string           `json:"user_id,omitempty"`
	Items   models.CartItems `json:"items"`
	Version int64            `json:"version"`
}

// TotalItems is the sum of quantities
func (c Cart) TotalItems() int {
	return c.Items.TotalItems()
}

// TotalPrice is the sum of price times quantity
func (c Cart) TotalPrice() decimal.Decimal {
	return c.Items.TotalPrice()
}

// CartResult is a cart after a mutation and what the mutation did
type CartResult struct {
	Cart    Cart
	Outcome string
	Notice  string
}

// cartState is the authoritative in-memory cart of one user. Its mutex
// keeps saves from this instance from overlapping.
type cartState struct {
	mu       sync.Mutex
	loaded   bool
	stored   bool // a user_carts row exists
	items    models.CartItems
	version  int64
	lastUsed time.Time // guarded by CartService.mu
}

// mutation transforms a copy of the cart. OutcomeUnchanged and
// OutcomeAlreadyInCart skip the save.
type mutation func(items models.CartItems) (models.CartItems, string, string, error)

// CartService owns the per-user cart state and writes it through to the store
type CartService struct {
	db  *gorm.DB
	log *zap.Logger

	mu        sync.Mutex
	states    map[string]*cartState
	lastSweep time.Time
	now       func() time.Time
}

// NewCartService creates a cart service backed by db
func NewCartService(db *gorm.DB, log *zap.Logger) *CartService {
	return &CartService{
		db:     db,
		log:    log,
		states: make(map[string]*cartState),
		now:    time.Now,
	}
}

func (s *CartService) state(userID string) *cartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= cartStateIdleTTL {
		s.sweep(now)
	}
	st, ok := s.states[userID]
	if !ok {
		st = &cartState{}
		s.states[userID] = st
	}
	st.lastUsed = now
	return st
}

// sweep drops carts nobody touched for cartStateIdleTTL. Busy states are
// kept. Caller holds s.mu.
func (s *CartService) sweep(now time.Time) {
	for userID, st := range s.states {
		if now.Sub(st.lastUsed) < cartStateIdleTTL || !st.mu.TryLock() {
			continue
		}
		delete(s.states, userID)
		st.mu.Unlock()
	}
	s.lastSweep = now
}

// Evict drops the in-memory state of a user, e.g. on logout
func (s *CartService) Evict(userID string) {
	s.mu.Lock()
	delete(s.states, userID)
	s.mu.Unlock()
}

// Load returns the persisted cart. Without a user it is empty and nothing
// is read; a user without a stored cart also gets an empty cart.
func (s *CartService) Load(ctx context.Context, userID string) (Cart, error) {
	if userID == "" {
		return Cart{Items: models.CartItems{}}, nil
	}

	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.refresh(ctx, userID, st); err != nil {
		s.log.Error("failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return Cart{}, StoreError(err)
	}
	return st.snapshot(userID), nil
}

// AddItem puts an item in the cart, merging quantities for repeatable
// items and refusing duplicates of unique ones.
func (s *CartService) AddItem(ctx context.Context, userID string, in CartItemInput) (CartResult, error) {
	if userID == "" {
		return CartResult{}, ErrAuthRequired
	}
	if in.ProductID == "" && in.CustomRequestID == "" {
		return CartResult{}, ErrInvalidItem
	}
	if in.ProductID != "" && (in.Size == "" || in.Color == "") {
		return CartResult{}, ErrSelectionIncomplete
	}

	item := newCartItem(in)
	return s.mutate(ctx, userID, func(items models.CartItems) (models.CartItems, string, string, error) {
		if i := items.Index(item.ID); i >= 0 {
			if item.IsUnique() || items[i].IsUnique() {
				return items, OutcomeAlreadyInCart, fmt.Sprintf("%s is a unique item and is already in your cart.", item.Name), nil
			}
			items[i].Quantity += item.Quantity
			return items, OutcomeIncremented, fmt.Sprintf("%s has been added.", item.Name), nil
		}
		return append(items, item), OutcomeAdded, fmt.Sprintf("%s has been added.", item.Name), nil
	})
}

func newCartItem(in CartItemInput) models.CartItem {
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	if in.IsOneOfOne || in.IsCustom {
		quantity = 1
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	return models.CartItem{
		ID:              in.CartID(),
		ProductID:       in.ProductID,
		CustomRequestID: in.CustomRequestID,
		CustomMockupID:  in.CustomMockupID,
		Name:            in.Name,
		Price:           in.Price,
		ImageURL:        in.ImageURL,
		Size:            in.Size,
		Color:           in.Color,
		Quantity:        quantity,
		IsOneOfOne:      in.IsOneOfOne,
		IsCustom:        in.IsCustom,
		Available:       available,
	}
}

// RemoveItem deletes a line. Unknown ids are a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (CartResult, error) {
	if userID == "" {
		return CartResult{}, ErrAuthRequired
	}
	return s.mutate(ctx, userID, removeLine(itemID))
}

func removeLine(itemID string) mutation {
	return func(items models.CartItems) (models.CartItems, string, string, error) {
		i := items.Index(itemID)
		if i < 0 {
			return items, OutcomeUnchanged, "", nil
		}
		return append(items[:i], items[i+1:]...), OutcomeRemoved, "Item has been removed.", nil
	}
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (CartResult, error) {
	if userID == "" {
		return CartResult{}, ErrAuthRequired
	}
	return s.mutate(ctx, userID, func(items models.CartItems) (models.CartItems, string, string, error) {
		i := items.Index(itemID)
		if i >= 0 && items[i].IsUnique() && quantity > 1 {
			return nil, "", "", ErrUniqueQuantity
		}
		if quantity <= 0 {
			return removeLine(itemID)(items)
		}
		if i < 0 || items[i].Quantity == quantity {
			return items, OutcomeUnchanged, "", nil
		}
		items[i].Quantity = quantity
		return items, OutcomeUpdated, "", nil
	})
}

// Clear empties the cart and persists the empty state. The notice is
// suppressed when the clear follows a placed order.
func (s *CartService) Clear(ctx context.Context, userID string, isOrderCompletion bool) (CartResult, error) {
	if userID == "" {
		return CartResult{Cart: Cart{Items: models.CartItems{}}, Outcome: OutcomeCleared}, nil
	}
	notice := "Your shopping cart is now empty."
	if isOrderCompletion {
		notice = ""
	}
	return s.mutate(ctx, userID, func(models.CartItems) (models.CartItems, string, string, error) {
		return models.CartItems{}, OutcomeCleared, notice, nil
	})
}

// mutate applies fn to the user's cart and saves the result. When another
// writer got there first the cart is reloaded and fn applied once more. The
// in-memory cart only changes after a successful save.
func (s *CartService) mutate(ctx context.Context, userID string, fn mutation) (CartResult, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.loaded {
		if err := s.refresh(ctx, userID, st); err != nil {
			s.log.Error("failed to load cart", zap.String("user_id", userID), zap.Error(err))
			return CartResult{}, StoreError(err)
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		next, outcome, notice, err := fn(st.items.Clone())
		if err != nil {
			return CartResult{}, err
		}
		if outcome == OutcomeUnchanged || outcome == OutcomeAlreadyInCart {
			return CartResult{Cart: st.snapshot(userID), Outcome: outcome, Notice: notice}, nil
		}

		version, err := s.save(ctx, userID, st.stored, st.version, next)
		if err == nil {
			st.items = next
			st.version = version
			st.stored = true
			return CartResult{Cart: st.snapshot(userID), Outcome: outcome, Notice: notice}, nil
		}
		if !errors.Is(err, errVersionConflict) {
			s.log.Error("failed to save cart", zap.String("user_id", userID), zap.Error(err))
			return CartResult{}, StoreError(err)
		}

		s.log.Info("cart changed elsewhere, reapplying", zap.String("user_id", userID), zap.Int64("version", st.version))
		if err := s.refresh(ctx, userID, st); err != nil {
			s.log.Error("failed to reload cart", zap.String("user_id", userID), zap.Error(err))
			return CartResult{}, StoreError(err)
		}
	}
	return CartResult{}, ErrCartConflict
}

// refresh replaces the in-memory cart with the stored one
func (s *CartService) refresh(ctx context.Context, userID string, st *cartState) error {
	var stored models.UserCart
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		st.items = models.CartItems{}
		st.version = 0
		st.stored = false
	case err != nil:
		return err
	default:
		st.stored = true
		st.items = stored.Items
		if st.items == nil {
			st.items = models.CartItems{}
		}
		st.version = stored.Version
	}
	st.loaded = true
	return nil
}

// save writes the whole collection if the stored version is still expected
// and returns the new version. Without a stored row it inserts one, and a
// concurrent insert counts as a conflict.
func (s *CartService) save(ctx context.Context, userID string, stored bool, expected int64, items models.CartItems) (int64, error) {
	db := s.db.WithContext(ctx)
	next := expected + 1

	if !stored {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserCart{
			UserID:  userID,
			Items:   items,
			Version: next,
		})
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, errVersionConflict
		}
		return next, nil
	}

	res := db.Model(&models.UserCart{}).
		Where("user_id = ? AND version = ?", userID, expected).
		Updates(map[string]interface{}{
			"cart_data":  items,
			"version":    next,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, errVersionConflict
	}
	return next, nil
}

func (st *cartState) snapshot(userID string) Cart {
	return Cart{UserID: userID, Items: st.items.Clone(), Version: st.version}
}
