package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/config"
	"github.com/sparkserve/bookingapi/internal/domain"
)

func newTestCartService(t *testing.T) (*cartService, *testRepos) {
	t.Helper()
	repos, fakes := newTestRepos()
	svc := NewCartService(repos, config.PolicyConfig{}, DefaultTaxRate, zap.NewNop())
	return svc, fakes
}

func seedService(t *testing.T, catalog *fakeCatalogRepo, name string, price float64) *domain.Service {
	t.Helper()
	svc := &domain.Service{Name: name, BasePrice: price, Category: "wash", IsActive: true}
	require.NoError(t, catalog.CreateService(context.Background(), svc))
	return svc
}

func TestGetCartReturnsEmptyCartForNewUser(t *testing.T) {
	svc, fakes := newTestCartService(t)
	userID := uuid.New()

	cart, err := svc.GetCart(context.Background(), userID)

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.GrandTotal)
	// Nothing is persisted until the first add.
	_, err = fakes.carts.GetByUserID(context.Background(), userID)
	assert.Error(t, err)
}

func TestAddItemCreatesCartAndPrices(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, ItemInput{
		ServiceID: catalogSvc.ID.String(),
		Quantity:  2,
	})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 300.0, cart.Items[0].UnitPrice)
	assert.Equal(t, 600.0, cart.Subtotal)
	assert.Equal(t, 108.0, cart.TaxAmount)
	assert.Equal(t, 708.0, cart.GrandTotal)
}

func TestAddItemAppendsNeverMerges(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	in := ItemInput{ServiceID: catalogSvc.ID.String(), Quantity: 1}
	_, err := svc.AddItem(context.Background(), userID, in)
	require.NoError(t, err)

	// The same input again becomes a second line, not a quantity bump.
	cart, err := svc.AddItem(context.Background(), userID, in)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.NotEqual(t, cart.Items[0].ID, cart.Items[1].ID)
	assert.Equal(t, 600.0, cart.Subtotal)
}

func TestAddItemClientPriceWins(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	price := 250.0
	cart, err := svc.AddItem(context.Background(), userID, ItemInput{
		ServiceID: catalogSvc.ID.String(),
		Quantity:  1,
		Price:     &price,
	})

	require.NoError(t, err)
	assert.Equal(t, 250.0, cart.Items[0].UnitPrice)
}

func TestAddItemRejectsNegativePrice(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)

	price := -10.0
	_, err := svc.AddItem(context.Background(), uuid.New(), ItemInput{
		ServiceID: catalogSvc.ID.String(),
		Quantity:  1,
		Price:     &price,
	})

	assert.Error(t, err)
}

func TestAddItemPackagePriceUsed(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	pkg := &domain.ServicePackage{ServiceID: catalogSvc.ID, Name: "4 Washes", Price: 999, IsActive: true}
	require.NoError(t, fakes.catalog.CreatePackage(context.Background(), pkg))
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, ItemInput{
		ServiceID: catalogSvc.ID.String(),
		PackageID: pkg.ID.String(),
		Quantity:  1,
	})

	require.NoError(t, err)
	assert.Equal(t, 999.0, cart.Items[0].UnitPrice)
	assert.Equal(t, domain.RefOf(pkg.ID), cart.Items[0].PackageRef)
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, ItemInput{
		ServiceID: catalogSvc.ID.String(),
		Quantity:  1,
	})
	require.NoError(t, err)

	qty := 3
	cart, err = svc.UpdateItem(context.Background(), userID, cart.Items[0].ID, UpdateCartItemRequest{Quantity: &qty})

	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 900.0, cart.Subtotal)
}

func TestUpdateItemZeroQuantityRemoves(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	cart, err := svc.AddItem(context.Background(), userID, ItemInput{
		ServiceID: catalogSvc.ID.String(),
		Quantity:  2,
	})
	require.NoError(t, err)

	zero := 0
	cart, err = svc.UpdateItem(context.Background(), userID, cart.Items[0].ID, UpdateCartItemRequest{Quantity: &zero})

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Subtotal)
	assert.Equal(t, 0.0, cart.GrandTotal)
}

func TestUpdateItemUnknownItem(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, ItemInput{
		ServiceID: catalogSvc.ID.String(),
		Quantity:  1,
	})
	require.NoError(t, err)

	qty := 2
	_, err = svc.UpdateItem(context.Background(), userID, uuid.New(), UpdateCartItemRequest{Quantity: &qty})
	assert.Error(t, err)
}

func TestClearDestroysCart(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, ItemInput{
		ServiceID: catalogSvc.ID.String(),
		Quantity:  1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), userID))

	cart, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestSyncAppendsAndSkipsUnresolvable(t *testing.T) {
	svc, fakes := newTestCartService(t)
	catalogSvc := seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	cart, err := svc.Sync(context.Background(), userID, SyncCartRequest{
		Items: []ItemInput{
			{ServiceID: catalogSvc.ID.String(), Quantity: 1},
			{ServiceName: "No Such Thing Anywhere", Quantity: 1},
		},
	})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, domain.RefOf(catalogSvc.ID), cart.Items[0].ServiceRef)
}

func TestLoadCartPersistsSanitizerRepairs(t *testing.T) {
	svc, fakes := newTestCartService(t)
	seedService(t, fakes.catalog, "Premium Wash", 300)
	userID := uuid.New()

	// Seed a cart document with a corrupt service reference, the shape a
	// legacy client may have left behind.
	corrupt := &domain.Cart{
		UserID: userID,
		Items: []domain.LineItem{
			{ID: uuid.New(), ServiceRef: "legacy-ref", Name: "Premium Wash", Quantity: 1, UnitPrice: 300},
		},
	}
	RecomputeCart(corrupt)
	require.NoError(t, fakes.carts.Save(context.Background(), corrupt))

	cart, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	_, ok := cart.Items[0].ServiceRef.UUID()
	assert.True(t, ok)

	// The repair was written back, not just returned.
	stored, err := fakes.carts.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	_, ok = stored.Items[0].ServiceRef.UUID()
	assert.True(t, ok)
}
