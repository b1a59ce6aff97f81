package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopfront/storefront-backend/internal/photos"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
)

const (
	// DefaultTTL applies when no cart TTL is configured.
	DefaultTTL = 30 * 24 * time.Hour
	// MaxQuantity caps a single cart line.
	MaxQuantity = 99
)

// Service exposes cart operations keyed by a client-held cart token.
type Service interface {
	Get(ctx context.Context, token string) (*CartDTO, error)
	SetItem(ctx context.Context, token string, productID int64, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, token string, productID int64) (*CartDTO, error)
	Clear(ctx context.Context, token string) error
}

type service struct {
	store      Store
	products   productLoader
	normalizer photos.Normalizer
	ttl        time.Duration
	logg       *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(store Store, products productLoader, normalizer photos.Normalizer, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{
		store:      store,
		products:   products,
		normalizer: normalizer,
		ttl:        ttl,
		logg:       logg,
	}, nil
}

// Get prices the cart from current product rows. Lines for products that no longer exist
// are dropped from the response and from the stored hash.
func (s *service) Get(ctx context.Context, token string) (*CartDTO, error) {
	id, err := parseToken(token)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCartID(ctx, id)
	key := s.store.CartKey(id)

	fields, err := s.store.HGetAll(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	quantities := make(map[int64]int, len(fields))
	ids := make([]int64, 0, len(fields))
	var stale []string
	for field, raw := range fields {
		productID, perr := strconv.ParseInt(field, 10, 64)
		qty, qerr := strconv.Atoi(raw)
		if perr != nil || qerr != nil || qty < 1 {
			stale = append(stale, field)
			continue
		}
		quantities[productID] = qty
		ids = append(ids, productID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	out := &CartDTO{CartID: id, Items: make([]LineDTO, 0, len(ids))}
	totalPLN := decimal.Zero
	totalUSD := decimal.Zero
	for _, productID := range ids {
		p, ok := found[productID]
		if !ok {
			stale = append(stale, strconv.FormatInt(productID, 10))
			continue
		}
		qty := quantities[productID]
		q := decimal.NewFromInt(int64(qty))
		linePLN := p.PricePLN.Mul(q)
		lineUSD := p.PriceUSD.Mul(q)
		totalPLN = totalPLN.Add(linePLN)
		totalUSD = totalUSD.Add(lineUSD)

		line := LineDTO{
			ProductID:    p.ID,
			ProductName:  p.ProductName,
			Brand:        p.Brand,
			Gender:       p.Gender.String(),
			Quantity:     qty,
			Stock:        p.Stock,
			UnitPricePLN: p.PricePLN.InexactFloat64(),
			UnitPriceUSD: p.PriceUSD.InexactFloat64(),
			LineTotalPLN: linePLN.Round(2).InexactFloat64(),
			LineTotalUSD: lineUSD.Round(2).InexactFloat64(),
		}
		if first := s.normalizer.Normalize(p.Photos).First(); first != "" {
			line.PhotoURL = &first
		}
		out.Items = append(out.Items, line)
		out.ItemCount += qty
	}
	out.TotalPLN = totalPLN.Round(2).InexactFloat64()
	out.TotalUSD = totalUSD.Round(2).InexactFloat64()

	if len(stale) > 0 {
		if _, err := s.store.HDel(ctx, key, stale...); err != nil {
			s.logg.WarnErr(ctx, "failed to prune stale cart lines", err)
		}
	}
	return out, nil
}

// SetItem sets the quantity of a product line and refreshes the cart TTL.
func (s *service) SetItem(ctx context.Context, token string, productID int64, qty int) (*CartDTO, error) {
	id, err := parseToken(token)
	if err != nil {
		return nil, err
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 || qty > MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", MaxQuantity))
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	key := s.store.CartKey(id)
	if err := s.store.HSetWithTTL(ctx, key, strconv.FormatInt(productID, 10), qty, s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart")
	}
	return s.Get(ctx, id)
}

// RemoveItem drops a product line.
func (s *service) RemoveItem(ctx context.Context, token string, productID int64) (*CartDTO, error) {
	id, err := parseToken(token)
	if err != nil {
		return nil, err
	}
	key := s.store.CartKey(id)
	removed, err := s.store.HDel(ctx, key, strconv.FormatInt(productID, 10))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart")
	}
	if removed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	if err := s.store.Expire(ctx, key, s.ttl); err != nil {
		s.logg.WarnErr(s.logg.WithCartID(ctx, id), "failed to refresh cart ttl", err)
	}
	return s.Get(ctx, id)
}

// Clear deletes the cart.
func (s *service) Clear(ctx context.Context, token string) error {
	id, err := parseToken(token)
	if err != nil {
		return err
	}
	if err := s.store.Del(ctx, s.store.CartKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func parseToken(token string) (string, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart id must be a uuid")
	}
	return id.String(), nil
}
