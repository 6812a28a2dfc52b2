package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

type catalogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sql.DB, logger *zap.Logger) *catalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger,
	}
}

const serviceColumns = `id, name, description, category, vehicle_class, base_price, image_url, service_type, dynamic_kind, is_active, created_at, updated_at`

func scanService(row interface{ Scan(...interface{}) error }) (*domain.Service, error) {
	var svc domain.Service
	var imageURL sql.NullString
	var dynamicKind sql.NullString

	err := row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.Description,
		&svc.Category,
		&svc.VehicleClass,
		&svc.BasePrice,
		&imageURL,
		&svc.ServiceType,
		&dynamicKind,
		&svc.IsActive,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if imageURL.Valid {
		svc.ImageURL = &imageURL.String
	}
	if dynamicKind.Valid {
		kind := domain.DynamicKind(dynamicKind.String)
		svc.DynamicKind = &kind
	}

	return &svc, nil
}

func (r *catalogRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	svc, err := scanService(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "service", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get service by ID", zap.Error(err))
		return nil, err
	}

	return svc, nil
}

func (r *catalogRepository) SearchServicesByName(ctx context.Context, fragment string) ([]domain.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE is_active = true AND name ILIKE '%' || $1 || '%'
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, fragment)
	if err != nil {
		r.logger.Error("Failed to search services", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *svc)
	}

	return services, rows.Err()
}

func (r *catalogRepository) GetServiceByExactName(ctx context.Context, name string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE LOWER(name) = LOWER($1)`

	svc, err := scanService(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "service", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get service by name", zap.Error(err))
		return nil, err
	}

	return svc, nil
}

func (r *catalogRepository) GetFallbackService(ctx context.Context, class domain.VehicleClass) (*domain.Service, error) {
	// The fallback entry is the generic wash for the vehicle class; the
	// category tag is seeded by administrators.
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE is_active = true AND category = 'general' AND vehicle_class = $1
		ORDER BY created_at
		LIMIT 1
	`

	svc, err := scanService(r.db.QueryRowContext(ctx, query, class))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "fallback service", ID: string(class)}
	}
	if err != nil {
		r.logger.Error("Failed to get fallback service", zap.Error(err))
		return nil, err
	}

	return svc, nil
}

func (r *catalogRepository) CreateService(ctx context.Context, svc *domain.Service) error {
	query := `
		INSERT INTO services (id, name, description, category, vehicle_class, base_price, image_url, service_type, dynamic_kind, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now()
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = now
	}
	if svc.UpdatedAt.IsZero() {
		svc.UpdatedAt = now
	}

	var dynamicKind *string
	if svc.DynamicKind != nil {
		s := string(*svc.DynamicKind)
		dynamicKind = &s
	}

	_, err := r.db.ExecContext(ctx, query,
		svc.ID,
		svc.Name,
		svc.Description,
		svc.Category,
		svc.VehicleClass,
		svc.BasePrice,
		svc.ImageURL,
		svc.ServiceType,
		dynamicKind,
		svc.IsActive,
		svc.CreatedAt,
		svc.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create service", zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) UpdateService(ctx context.Context, svc *domain.Service) error {
	query := `
		UPDATE services
		SET name = $2, description = $3, category = $4, vehicle_class = $5, base_price = $6, image_url = $7, service_type = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`

	svc.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		svc.ID,
		svc.Name,
		svc.Description,
		svc.Category,
		svc.VehicleClass,
		svc.BasePrice,
		svc.ImageURL,
		svc.ServiceType,
		svc.IsActive,
		svc.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update service", zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) ListServices(ctx context.Context) ([]domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE is_active = true ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list services", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *svc)
	}

	return services, rows.Err()
}

func (r *catalogRepository) GetPackageByID(ctx context.Context, id uuid.UUID) (*domain.ServicePackage, error) {
	query := `
		SELECT id, service_id, name, price, duration_days, wash_count, is_active, created_at, updated_at
		FROM service_packages
		WHERE id = $1
	`

	var pkg domain.ServicePackage
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.ServiceID,
		&pkg.Name,
		&pkg.Price,
		&pkg.DurationDays,
		&pkg.WashCount,
		&pkg.IsActive,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "package", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get package by ID", zap.Error(err))
		return nil, err
	}

	return &pkg, nil
}

func (r *catalogRepository) CreatePackage(ctx context.Context, pkg *domain.ServicePackage) error {
	query := `
		INSERT INTO service_packages (id, service_id, name, price, duration_days, wash_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = now
	}
	if pkg.UpdatedAt.IsZero() {
		pkg.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		pkg.ID,
		pkg.ServiceID,
		pkg.Name,
		pkg.Price,
		pkg.DurationDays,
		pkg.WashCount,
		pkg.IsActive,
		pkg.CreatedAt,
		pkg.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create package", zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) GetAddOnByID(ctx context.Context, id uuid.UUID) (*domain.AddOn, error) {
	query := `SELECT id, name, price, is_active, created_at, updated_at FROM addons WHERE id = $1`

	var addOn domain.AddOn
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&addOn.ID,
		&addOn.Name,
		&addOn.Price,
		&addOn.IsActive,
		&addOn.CreatedAt,
		&addOn.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get addon by ID", zap.Error(err))
		return nil, err
	}

	return &addOn, nil
}

func (r *catalogRepository) CreateAddOn(ctx context.Context, addOn *domain.AddOn) error {
	query := `
		INSERT INTO addons (id, name, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now()
	if addOn.ID == uuid.Nil {
		addOn.ID = uuid.New()
	}
	if addOn.CreatedAt.IsZero() {
		addOn.CreatedAt = now
	}
	if addOn.UpdatedAt.IsZero() {
		addOn.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		addOn.ID,
		addOn.Name,
		addOn.Price,
		addOn.IsActive,
		addOn.CreatedAt,
		addOn.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create addon", zap.Error(err))
		return err
	}

	return nil
}
