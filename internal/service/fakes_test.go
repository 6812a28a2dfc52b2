package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sparkserve/bookingapi/internal/domain"
	"github.com/sparkserve/bookingapi/internal/repository"
	"github.com/sparkserve/bookingapi/pkg/errors"
)

// In-memory repository fakes shared by the service tests.

type fakeCatalogRepo struct {
	mu       sync.Mutex
	services []domain.Service
	packages []domain.ServicePackage
	addOns   []domain.AddOn
	creates  int
}

func (f *fakeCatalogRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, svc := range f.services {
		if svc.ID == id {
			out := svc
			return &out, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "service", ID: id.String()}
}

func (f *fakeCatalogRepo) SearchServicesByName(ctx context.Context, fragment string) ([]domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []domain.Service
	for _, svc := range f.services {
		if svc.IsActive && strings.Contains(strings.ToLower(svc.Name), strings.ToLower(fragment)) {
			matches = append(matches, svc)
		}
	}
	return matches, nil
}

func (f *fakeCatalogRepo) GetServiceByExactName(ctx context.Context, name string) (*domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, svc := range f.services {
		if strings.EqualFold(svc.Name, name) {
			out := svc
			return &out, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "service", ID: name}
}

func (f *fakeCatalogRepo) GetFallbackService(ctx context.Context, class domain.VehicleClass) (*domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, svc := range f.services {
		if svc.Category == "general" && svc.VehicleClass == class {
			out := svc
			return &out, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "service", ID: string(class)}
}

func (f *fakeCatalogRepo) CreateService(ctx context.Context, svc *domain.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.services {
		if strings.EqualFold(existing.Name, svc.Name) {
			return &errors.ErrConflict{Resource: "service"}
		}
	}
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	f.creates++
	f.services = append(f.services, *svc)
	return nil
}

func (f *fakeCatalogRepo) UpdateService(ctx context.Context, svc *domain.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.services {
		if f.services[i].ID == svc.ID {
			f.services[i] = *svc
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "service", ID: svc.ID.String()}
}

func (f *fakeCatalogRepo) ListServices(ctx context.Context) ([]domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Service(nil), f.services...), nil
}

func (f *fakeCatalogRepo) GetPackageByID(ctx context.Context, id uuid.UUID) (*domain.ServicePackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pkg := range f.packages {
		if pkg.ID == id {
			out := pkg
			return &out, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "package", ID: id.String()}
}

func (f *fakeCatalogRepo) CreatePackage(ctx context.Context, pkg *domain.ServicePackage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	f.packages = append(f.packages, *pkg)
	return nil
}

func (f *fakeCatalogRepo) GetAddOnByID(ctx context.Context, id uuid.UUID) (*domain.AddOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.addOns {
		if a.ID == id {
			out := a
			return &out, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "addon", ID: id.String()}
}

func (f *fakeCatalogRepo) CreateAddOn(ctx context.Context, addOn *domain.AddOn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if addOn.ID == uuid.Nil {
		addOn.ID = uuid.New()
	}
	f.addOns = append(f.addOns, *addOn)
	return nil
}

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]domain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[uuid.UUID]domain.Cart)}
}

func (f *fakeCartRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: userID.String()}
	}
	out := cart
	out.Items = append([]domain.LineItem(nil), cart.Items...)
	return &out, nil
}

func (f *fakeCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, exists := f.carts[cart.UserID]
	if cart.Version == 0 {
		if exists {
			return &errors.ErrConflict{Resource: "cart"}
		}
		cart.ID = uuid.New()
		cart.Version = 1
	} else {
		if !exists || stored.Version != cart.Version {
			return &errors.ErrConflict{Resource: "cart"}
		}
		cart.Version++
	}
	copied := *cart
	copied.Items = append([]domain.LineItem(nil), cart.Items...)
	f.carts[cart.UserID] = copied
	return nil
}

func (f *fakeCartRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	copied := *order
	copied.Items = append([]domain.OrderItem(nil), order.Items...)
	f.orders = append(f.orders, copied)
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			out := o
			out.Items = append([]domain.OrderItem(nil), o.Items...)
			return &out, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, assignedTo *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			if assignedTo != nil {
				f.orders[i].AssignedTo = assignedTo
			}
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "order", ID: id.String()}
}

func (f *fakeOrderRepo) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].PaymentStatus = status
			if transactionID != nil {
				f.orders[i].TransactionID = transactionID
			}
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "order", ID: id.String()}
}

func (f *fakeOrderRepo) Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time, paymentStatus domain.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = domain.OrderStatusCancelled
			f.orders[i].PaymentStatus = paymentStatus
			f.orders[i].CancelledAt = &cancelledAt
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "order", ID: id.String()}
}

func (f *fakeOrderRepo) SetReview(ctx context.Context, id uuid.UUID, rating int, comment string, reviewedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].ReviewRating = &rating
			f.orders[i].ReviewComment = &comment
			f.orders[i].ReviewedAt = &reviewedAt
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "order", ID: id.String()}
}

func (f *fakeOrderRepo) CountCouponUsesByUser(ctx context.Context, userID uuid.UUID, code string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, o := range f.orders {
		if o.UserID == userID && o.CouponCode != nil && strings.EqualFold(*o.CouponCode, code) {
			count++
		}
	}
	return count, nil
}

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: make(map[string]*domain.Coupon)}
}

func (f *fakeCouponRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon, ok := f.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "coupon", ID: code}
	}
	out := *coupon
	return &out, nil
}

func (f *fakeCouponRepo) Redeem(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon, ok := f.coupons[strings.ToUpper(code)]
	if !ok {
		return &errors.ErrNotFound{Resource: "coupon", ID: code}
	}
	if coupon.GlobalUsageLimit != nil && coupon.UsedCount >= *coupon.GlobalUsageLimit {
		return &errors.ErrPolicyViolation{Reason: "coupon usage limit exceeded"}
	}
	coupon.UsedCount++
	return nil
}

func (f *fakeCouponRepo) Create(ctx context.Context, coupon *domain.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	f.coupons[strings.ToUpper(coupon.Code)] = coupon
	return nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	credits map[uuid.UUID]float64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{credits: make(map[uuid.UUID]float64)}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	return nil
}

func (f *fakeUserRepo) IncrementOrderStats(ctx context.Context, id uuid.UUID, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits[id] += amount
	return nil
}

type fakeAdminKeyRepo struct{}

func (f *fakeAdminKeyRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.AdminKey, error) {
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (f *fakeAdminKeyRepo) Create(ctx context.Context, key *domain.AdminKey) error {
	return nil
}

type fakeOutboxRepo struct {
	mu       sync.Mutex
	messages []domain.OutboxMessage
}

func (f *fakeOutboxRepo) Enqueue(ctx context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, domain.OutboxMessage{
		ID:      uuid.New(),
		Topic:   topic,
		Payload: payload,
		Status:  "pending",
	})
	return nil
}

func (f *fakeOutboxRepo) FetchDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OutboxMessage(nil), f.messages...), nil
}

func (f *fakeOutboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeOutboxRepo) Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time) error {
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeOutboxRepo) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	for i, m := range f.messages {
		out[i] = m.Topic
	}
	return out
}

type testRepos struct {
	catalog *fakeCatalogRepo
	carts   *fakeCartRepo
	orders  *fakeOrderRepo
	coupons *fakeCouponRepo
	users   *fakeUserRepo
	outbox  *fakeOutboxRepo
}

func newTestRepos() (*repository.Repositories, *testRepos) {
	fakes := &testRepos{
		catalog: &fakeCatalogRepo{},
		carts:   newFakeCartRepo(),
		orders:  &fakeOrderRepo{},
		coupons: newFakeCouponRepo(),
		users:   newFakeUserRepo(),
		outbox:  &fakeOutboxRepo{},
	}
	repos := &repository.Repositories{
		Catalog:   fakes.catalog,
		Carts:     fakes.carts,
		Orders:    fakes.orders,
		Coupons:   fakes.coupons,
		Users:     fakes.users,
		AdminKeys: &fakeAdminKeyRepo{},
		Outbox:    fakes.outbox,
	}
	return repos, fakes
}
