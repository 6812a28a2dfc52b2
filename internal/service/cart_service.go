package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/repository"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

type cartService struct {
	repos     *repository.Repositories
	resolver  *serviceResolver
	sanitizer *cartSanitizer
	taxRate   float64
	logger    *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repos *repository.Repositories, policy config.PolicyConfig, taxRate float64, logger *zap.Logger) *cartService {
	resolver := NewServiceResolver(repos.Catalog, policy, logger)
	return &cartService{
		repos:     repos,
		resolver:  resolver,
		sanitizer: NewCartSanitizer(resolver, logger),
		taxRate:   taxRate,
		logger:    logger,
	}
}

// loadCart fetches the user's cart, running the sanitizer first as every
// cart operation does. Sanitizer repairs are persisted immediately,
// independent of whatever save the caller performs afterwards.
func (s *cartService) loadCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.repos.Carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.sanitizer.Sanitize(ctx, cart) {
		if err := s.repos.Carts.Save(ctx, cart); err != nil {
			s.logger.Warn("Failed to persist sanitized cart", zap.Error(err))
		}
	}

	return cart, nil
}

// newCart builds the empty cart created on a user's first add
func (s *cartService) newCart(userID uuid.UUID) *domain.Cart {
	return &domain.Cart{
		UserID:  userID,
		TaxRate: s.taxRate,
	}
}

// GetCart returns the user's sanitized, priced cart. A user without a cart
// gets an empty one; nothing is persisted until the first add.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		if _, notFound := err.(*errors.ErrNotFound); notFound {
			cart = s.newCart(userID)
			RecomputeCart(cart)
			return cart, nil
		}
		return nil, err
	}

	return cart, nil
}

// buildLineItem turns a client item input into a cart line item, resolving
// the service reference through the resolver chain.
func (s *cartService) buildLineItem(ctx context.Context, in ItemInput) (*domain.LineItem, error) {
	svc, err := s.resolver.Resolve(ctx, in.Descriptor())
	if err != nil {
		return nil, err
	}

	item := domain.LineItem{
		ID:                  uuid.New(),
		ServiceRef:          domain.RefOf(svc.ID),
		Quantity:            in.Quantity,
		VehicleClass:        domain.NormalizeVehicleClass(in.VehicleType),
		SpecialInstructions: in.SpecialInstructions,
		Name:                svc.Name,
		Category:            in.Category,
		ServiceType:         in.Type,
		ImageURL:            svc.ImageURL,
	}
	if in.ServiceName != "" {
		item.Name = in.ServiceName
	}
	if in.Image != nil {
		item.ImageURL = in.Image
	}
	if item.Category == "" {
		item.Category = svc.Category
	}

	// Client-quoted prices are kept; the catalog price is only a fallback.
	unitPrice := svc.BasePrice
	if pkgRef := domain.Ref(in.PackageID); !pkgRef.IsZero() {
		if pkgID, ok := pkgRef.UUID(); ok {
			pkg, err := s.repos.Catalog.GetPackageByID(ctx, pkgID)
			if err == nil {
				item.PackageRef = pkgRef
				unitPrice = pkg.Price
			} else if _, notFound := err.(*errors.ErrNotFound); !notFound {
				return nil, err
			}
		}
	}
	if in.Price != nil {
		unitPrice = *in.Price
	}
	if unitPrice < 0 {
		return nil, &errors.ErrValidation{Field: "price", Message: "must not be negative"}
	}
	item.UnitPrice = unitPrice

	for _, a := range in.AddOns {
		if _, ok := domain.Ref(a.AddOnID).UUID(); !ok {
			continue
		}
		item.AddOns = append(item.AddOns, domain.AddOnSelection{
			AddOnRef:  domain.Ref(a.AddOnID),
			Name:      a.Name,
			Quantity:  a.Quantity,
			UnitPrice: a.Price,
		})
	}
	for _, l := range in.LaundryItems {
		item.SubItems = append(item.SubItems, domain.SubItem{
			Kind:      l.Kind,
			Quantity:  l.Quantity,
			UnitPrice: l.Price,
		})
	}
	for _, u := range in.UIAddOns {
		item.FreeFormAddOns = append(item.FreeFormAddOns, domain.FreeFormAddOn{
			Label:     u.Label,
			Quantity:  u.Quantity,
			UnitPrice: u.Price,
		})
	}

	return &item, nil
}

// AddItem appends one line item to the user's cart, creating the cart on
// first use. An identical existing line is never merged into.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, in ItemInput) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		if _, notFound := err.(*errors.ErrNotFound); !notFound {
			return nil, err
		}
		cart = s.newCart(userID)
	}

	item, err := s.buildLineItem(ctx, in)
	if err != nil {
		return nil, err
	}

	cart.Items = append(cart.Items, *item)
	RecomputeCart(cart)

	if err := s.repos.Carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// UpdateItem updates quantity, add-ons or instructions on one line item.
// Setting the quantity to zero or below removes the item.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateCartItemRequest) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &errors.ErrNotFound{Resource: "cart item", ID: itemID.String()}
	}

	if req.Quantity != nil && *req.Quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		item := &cart.Items[idx]
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.AddOns != nil {
			item.AddOns = nil
			for _, a := range req.AddOns {
				if _, ok := domain.Ref(a.AddOnID).UUID(); !ok {
					continue
				}
				item.AddOns = append(item.AddOns, domain.AddOnSelection{
					AddOnRef:  domain.Ref(a.AddOnID),
					Name:      a.Name,
					Quantity:  a.Quantity,
					UnitPrice: a.Price,
				})
			}
		}
		if req.SpecialInstructions != nil {
			item.SpecialInstructions = *req.SpecialInstructions
		}
	}

	RecomputeCart(cart)

	if err := s.repos.Carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveItem removes one line item from the cart
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.Cart, error) {
	zero := 0
	return s.UpdateItem(ctx, userID, itemID, UpdateCartItemRequest{Quantity: &zero})
}

// Clear destroys the user's cart
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repos.Carts.DeleteByUserID(ctx, userID)
}

// Sync merges a client-held offline cart into the server cart. Items are
// appended through the same resolution path as single adds.
func (s *cartService) Sync(ctx context.Context, userID uuid.UUID, req SyncCartRequest) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		if _, notFound := err.(*errors.ErrNotFound); !notFound {
			return nil, err
		}
		cart = s.newCart(userID)
	}

	for _, in := range req.Items {
		item, err := s.buildLineItem(ctx, in)
		if err != nil {
			if _, notFound := err.(*errors.ErrNotFound); notFound {
				// An unresolvable offline item is skipped, not fatal.
				s.logger.Warn("Skipping unresolvable synced item", zap.String("name", in.ServiceName))
				continue
			}
			return nil, err
		}
		cart.Items = append(cart.Items, *item)
	}

	RecomputeCart(cart)

	if err := s.repos.Carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}
