package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/domain"
)

type cartSanitizer struct {
	resolver *serviceResolver
	logger   *zap.Logger
}

// NewCartSanitizer creates a new cart sanitizer
func NewCartSanitizer(resolver *serviceResolver, logger *zap.Logger) *cartSanitizer {
	return &cartSanitizer{
		resolver: resolver,
		logger:   logger,
	}
}

// Sanitize repairs or drops line items whose catalog references are no
// longer structurally valid, using the resolver on surviving display
// metadata. Returns true when anything changed; running it again on the
// result changes nothing. Repairs are never surfaced to callers.
func (s *cartSanitizer) Sanitize(ctx context.Context, cart *domain.Cart) bool {
	changed := false
	kept := make([]domain.LineItem, 0, len(cart.Items))

	for _, item := range cart.Items {
		if _, ok := item.ServiceRef.UUID(); !ok {
			svc, err := s.resolver.Resolve(ctx, ItemDescriptor{
				Name:         item.Name,
				TypeHint:     item.ServiceType,
				CategoryHint: item.Category,
				VehicleHint:  string(item.VehicleClass),
			})
			if err != nil {
				s.logger.Warn("Dropping unrepairable cart item",
					zap.String("item_name", item.Name),
					zap.Error(err),
				)
				changed = true
				continue
			}
			item.ServiceRef = domain.RefOf(svc.ID)
			changed = true
		}

		if !item.PackageRef.IsZero() {
			if _, ok := item.PackageRef.UUID(); !ok {
				// Package is optional; clear it rather than dropping the item.
				item.PackageRef = ""
				changed = true
			}
		}

		if len(item.AddOns) > 0 {
			valid := make([]domain.AddOnSelection, 0, len(item.AddOns))
			for _, addOn := range item.AddOns {
				if _, ok := addOn.AddOnRef.UUID(); ok {
					valid = append(valid, addOn)
				}
			}
			if len(valid) != len(item.AddOns) {
				item.AddOns = valid
				changed = true
			}
		}

		kept = append(kept, item)
	}

	if changed {
		cart.Items = kept
		RecomputeCart(cart)
	}

	return changed
}
