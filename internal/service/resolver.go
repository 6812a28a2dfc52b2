package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/repository"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

// ItemDescriptor is whatever a client sent to identify a service: a valid
// catalog id, a stale id, a free-text name, or only category/vehicle hints.
type ItemDescriptor struct {
	CatalogRef   domain.Ref
	Name         string
	TypeHint     string
	CategoryHint string
	VehicleHint  string
	// Price and ImageURL, when set, are treated as authoritative for an
	// auto-provisioned entry and update it in place (last-write-wins).
	Price    *float64
	ImageURL *string
}

type serviceResolver struct {
	catalog repository.CatalogRepository
	policy  config.PolicyConfig
	logger  *zap.Logger
}

// NewServiceResolver creates a new service resolver
func NewServiceResolver(catalog repository.CatalogRepository, policy config.PolicyConfig, logger *zap.Logger) *serviceResolver {
	return &serviceResolver{
		catalog: catalog,
		policy:  policy,
		logger:  logger,
	}
}

type resolveStrategy func(ctx context.Context, d ItemDescriptor) (*domain.Service, error)

// Resolve maps a descriptor to a concrete catalog service. Strategies run
// in strict priority order and the first match wins: exact id, name
// substring, dynamic-category pattern, vehicle-class fallback. A nil, nil
// return from a strategy means "not mine, try the next one".
func (r *serviceResolver) Resolve(ctx context.Context, d ItemDescriptor) (*domain.Service, error) {
	strategies := []resolveStrategy{
		r.resolveByID,
		r.resolveByName,
		r.resolveByHintedCategory,
		r.resolveFallback,
	}

	for _, strategy := range strategies {
		svc, err := strategy(ctx, d)
		if err != nil {
			return nil, err
		}
		if svc != nil {
			return svc, nil
		}
	}

	return nil, &errors.ErrNotFound{Resource: "service", ID: d.Name}
}

func (r *serviceResolver) resolveByID(ctx context.Context, d ItemDescriptor) (*domain.Service, error) {
	id, ok := d.CatalogRef.UUID()
	if !ok {
		return nil, nil
	}

	svc, err := r.catalog.GetServiceByID(ctx, id)
	if err != nil {
		if _, notFound := err.(*errors.ErrNotFound); notFound {
			// Stale id; later strategies may still recover the item.
			return nil, nil
		}
		return nil, err
	}

	return svc, nil
}

func (r *serviceResolver) resolveByName(ctx context.Context, d ItemDescriptor) (*domain.Service, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, nil
	}

	matches, err := r.catalog.SearchServicesByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// A name match can land on a provisioned entry; the caller's price and
	// image stay authoritative for those.
	return r.refreshProvisioned(ctx, &matches[0], d), nil
}

// dynamicKindPatterns maps each dynamic category to the lowercase
// substrings that recognize it in a type hint, category hint or name.
var dynamicKindPatterns = map[domain.DynamicKind][]string{
	domain.DynamicSubscription:    {"subscription", "monthly plan", "plan"},
	domain.DynamicGearWash:        {"gear wash", "helmet", "riding gear", "jacket"},
	domain.DynamicAccessory:       {"accessor"},
	domain.DynamicVehicleCheckup:  {"checkup", "check-up", "inspection"},
	domain.DynamicPollutionCert:   {"pollution", "puc"},
	domain.DynamicInsuranceAssist: {"insurance"},
}

// dynamicKindLabels is the display prefix used for synthesized names.
var dynamicKindLabels = map[domain.DynamicKind]string{
	domain.DynamicSubscription:    "Monthly Plan",
	domain.DynamicGearWash:        "Gear Wash",
	domain.DynamicAccessory:       "Accessory",
	domain.DynamicVehicleCheckup:  "Vehicle Checkup",
	domain.DynamicPollutionCert:   "Pollution Certificate",
	domain.DynamicInsuranceAssist: "Insurance Assist",
}

func matchDynamicKind(texts ...string) (domain.DynamicKind, bool) {
	for _, kind := range domain.AllDynamicKinds {
		for _, pattern := range dynamicKindPatterns[kind] {
			for _, text := range texts {
				if text == "" {
					continue
				}
				if strings.Contains(strings.ToLower(text), pattern) {
					return kind, true
				}
			}
		}
	}
	return "", false
}

// synthesizedName builds the canonical name of a provisioned entry. The
// same descriptor always synthesizes the same name, which makes
// provisioning idempotent.
func synthesizedName(kind domain.DynamicKind, baseName string) string {
	label := dynamicKindLabels[kind]
	baseName = strings.TrimSpace(baseName)
	if baseName == "" {
		return label
	}
	if strings.EqualFold(baseName, label) {
		return label
	}
	return label + ": " + baseName
}

func (r *serviceResolver) resolveByHintedCategory(ctx context.Context, d ItemDescriptor) (*domain.Service, error) {
	kind, ok := matchDynamicKind(d.TypeHint, d.CategoryHint, d.Name)
	if !ok {
		return nil, nil
	}

	name := synthesizedName(kind, d.Name)

	existing, err := r.catalog.GetServiceByExactName(ctx, name)
	if err == nil {
		return r.refreshProvisioned(ctx, existing, d), nil
	}
	if _, notFound := err.(*errors.ErrNotFound); !notFound {
		return nil, err
	}

	if !r.policy.AllowsProvisioning(kind) {
		return nil, nil
	}

	svc := &domain.Service{
		Name:         name,
		Category:     strings.ToLower(string(kind)),
		VehicleClass: domain.NormalizeVehicleClass(d.VehicleHint),
		ServiceType:  strings.ToLower(string(kind)),
		DynamicKind:  &kind,
		IsActive:     true,
	}
	if d.Price != nil {
		svc.BasePrice = *d.Price
	}
	if d.ImageURL != nil {
		svc.ImageURL = d.ImageURL
	}

	if err := r.catalog.CreateService(ctx, svc); err != nil {
		// A concurrent provision of the same name can beat us to the
		// unique index; re-read instead of failing the caller.
		if re, rerr := r.catalog.GetServiceByExactName(ctx, name); rerr == nil {
			return re, nil
		}
		return nil, err
	}

	r.logger.Info("Auto-provisioned catalog service",
		zap.String("name", name),
		zap.String("kind", string(kind)),
	)

	return svc, nil
}

// refreshProvisioned applies a caller-supplied authoritative price or image
// to an existing provisioned entry, last-write-wins, no versioning.
func (r *serviceResolver) refreshProvisioned(ctx context.Context, svc *domain.Service, d ItemDescriptor) *domain.Service {
	if svc.DynamicKind == nil {
		return svc
	}

	changed := false
	if d.Price != nil && *d.Price != svc.BasePrice {
		svc.BasePrice = *d.Price
		changed = true
	}
	if d.ImageURL != nil && (svc.ImageURL == nil || *svc.ImageURL != *d.ImageURL) {
		svc.ImageURL = d.ImageURL
		changed = true
	}

	if changed {
		if err := r.catalog.UpdateService(ctx, svc); err != nil {
			r.logger.Warn("Failed to refresh provisioned service", zap.Error(err))
		}
	}

	return svc
}

func (r *serviceResolver) resolveFallback(ctx context.Context, d ItemDescriptor) (*domain.Service, error) {
	class := domain.NormalizeVehicleClass(d.VehicleHint)

	svc, err := r.catalog.GetFallbackService(ctx, class)
	if err != nil {
		if _, notFound := err.(*errors.ErrNotFound); notFound {
			// Even the generic fallback is absent; resolution fails.
			return nil, nil
		}
		return nil, err
	}

	return svc, nil
}
