package dashboard

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/media"
	"github.com/mamadbah2/farmchainx/internal/metrics"
	"github.com/mamadbah2/farmchainx/internal/repository/memory"
	"github.com/mamadbah2/farmchainx/internal/service/records"
	"github.com/mamadbah2/farmchainx/internal/service/session"
	"github.com/mamadbah2/farmchainx/internal/service/visibility"
)

type fixture struct {
	storage    *memory.Store
	sessions   *session.Manager
	auth       *session.Authenticator
	store      *records.Store
	controller *Controller
}

func newFixture(defaultRole models.Role) *fixture {
	storage := memory.NewStore()
	sessions := session.NewManager(storage, defaultRole, nil)
	store := records.NewStore(storage, nil)
	mediaSvc := media.NewService(media.NewMemoryBackend(), 1<<20, nil)
	return &fixture{
		storage:    storage,
		sessions:   sessions,
		auth:       session.NewAuthenticator(storage, sessions, nil),
		store:      store,
		controller: NewController(sessions, store, visibility.NewFilter(visibility.RuleStatus), mediaSvc, metrics.New(), nil),
	}
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture("")

	_, err := f.auth.Register(ctx, models.RegisterRequest{
		Name: "Awa", Email: "a@x", Password: "pw", ConfirmPassword: "pw", Role: "farmer",
	})
	require.NoError(t, err)

	view, err := f.controller.Enter(ctx)
	require.NoError(t, err)
	require.Equal(t, "Farmer Dashboard", view.Title)
	require.True(t, view.CanManage)
	require.Empty(t, view.Products)

	record, err := f.controller.AddProduct(ctx, models.ProductDraft{Name: "Tomatoes"}, nil)
	require.NoError(t, err)

	all := f.store.List(ctx)
	require.Len(t, all, 1)
	require.Equal(t, "a@x", all[0].CreatedBy)

	require.NoError(t, f.controller.Logout(ctx))
	_, err = f.sessions.Current(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)
	_, err = f.controller.Enter(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, f.sessions.Establish(ctx, "root@x", models.RoleAdmin))

	// a fresh store instance proves the record came back from the slot
	reloaded := NewController(f.sessions, records.NewStore(f.storage, nil), visibility.NewFilter(visibility.RuleStatus), nil, nil, nil)
	view, err = reloaded.Enter(ctx)
	require.NoError(t, err)
	require.Equal(t, "Admin Dashboard", view.Title)
	require.Equal(t, []models.ProductRecord{record}, view.Products)
}

func TestController(t *testing.T) {
	ctx := context.Background()

	t.Run("ConsumerCannotManage", func(t *testing.T) {
		f := newFixture("")
		require.NoError(t, f.sessions.Establish(ctx, "c@x", models.RoleConsumer))

		view, err := f.controller.Enter(ctx)
		require.NoError(t, err)
		require.False(t, view.CanManage)

		_, err = f.controller.AddProduct(ctx, models.ProductDraft{Name: "Tomatoes"}, nil)
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.controller.DeleteProduct(ctx, 1, records.Confirmed)
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.controller.ToggleForm(ctx)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("ValidationLeavesStoreUnchanged", func(t *testing.T) {
		f := newFixture("")
		require.NoError(t, f.sessions.Establish(ctx, "a@x", models.RoleFarmer))

		_, err := f.controller.AddProduct(ctx, models.ProductDraft{}, bytes.NewReader([]byte("\x89PNG\r\n\x1a\n")))
		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Empty(t, f.store.List(ctx))
	})

	t.Run("ImageUploadStoresReference", func(t *testing.T) {
		f := newFixture("")
		require.NoError(t, f.sessions.Establish(ctx, "a@x", models.RoleFarmer))

		image := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
		record, err := f.controller.AddProduct(ctx, models.ProductDraft{Name: "Mango"}, bytes.NewReader(image))
		require.NoError(t, err)
		require.Equal(t, media.RefPrefix+media.Key(image), record.ImageURL)
	})

	t.Run("VisibilityScopesListingAndDeletes", func(t *testing.T) {
		f := newFixture("")
		require.NoError(t, f.sessions.Establish(ctx, "r@x", models.RoleRetailer))
		retail, err := f.controller.AddProduct(ctx, models.ProductDraft{Name: "Rice"}, nil)
		require.NoError(t, err)

		require.NoError(t, f.sessions.Establish(ctx, "a@x", models.RoleFarmer))
		own, err := f.controller.AddProduct(ctx, models.ProductDraft{Name: "Tomatoes"}, nil)
		require.NoError(t, err)

		products, err := f.controller.Products(ctx)
		require.NoError(t, err)
		require.Equal(t, []models.ProductRecord{own}, products)

		_, err = f.controller.VisibleProduct(ctx, retail.ID)
		require.ErrorIs(t, err, records.ErrNotFound)

		removed, err := f.controller.DeleteProduct(ctx, retail.ID, records.Confirmed)
		require.NoError(t, err)
		require.False(t, removed)
		require.Len(t, f.store.List(ctx), 2)

		_, err = f.controller.DeleteProduct(ctx, own.ID, nil)
		require.ErrorIs(t, err, records.ErrConfirmationRequired)

		removed, err = f.controller.DeleteProduct(ctx, own.ID, records.Confirmed)
		require.NoError(t, err)
		require.True(t, removed)
		require.Len(t, f.store.List(ctx), 1)
	})

	t.Run("ViewStateLifecycle", func(t *testing.T) {
		f := newFixture("")
		require.NoError(t, f.sessions.Establish(ctx, "a@x", models.RoleFarmer))
		record, err := f.controller.AddProduct(ctx, models.ProductDraft{Name: "Tomatoes"}, nil)
		require.NoError(t, err)

		state, err := f.controller.ToggleForm(ctx)
		require.NoError(t, err)
		require.True(t, state.FormOpen)

		state, err = f.controller.SelectPage(PageOrders)
		require.NoError(t, err)
		require.Equal(t, PageOrders, state.Page)

		_, err = f.controller.SelectPage(Page("billing"))
		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)

		_, err = f.controller.OpenQR(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, f.controller.State().QRRecordID)
		require.Equal(t, record.ID, *f.controller.State().QRRecordID)

		require.Nil(t, f.controller.CloseQR().QRRecordID)

		view, err := f.controller.Enter(ctx)
		require.NoError(t, err)
		require.Equal(t, ViewState{Page: PageProducts}, view.State)
	})

	t.Run("DefaultRoleLegacyMode", func(t *testing.T) {
		f := newFixture(models.RoleFarmer)

		view, err := f.controller.Enter(ctx)
		require.NoError(t, err)
		require.True(t, view.Session.Anonymous())
		require.Equal(t, "Farmer Dashboard", view.Title)
		require.False(t, view.CanManage)

		_, err = f.controller.AddProduct(ctx, models.ProductDraft{Name: "Tomatoes"}, nil)
		require.ErrorIs(t, err, ErrSignInRequired)
		require.Empty(t, f.store.List(ctx))
		_, err = f.controller.ToggleForm(ctx)
		require.ErrorIs(t, err, ErrSignInRequired)

		require.NoError(t, f.store.Persist(ctx, []models.ProductRecord{{ID: 1, Name: "Okra", Status: "farmer", CreatedBy: "a@x"}}))
		_, err = f.controller.DeleteProduct(ctx, 1, records.Confirmed)
		require.ErrorIs(t, err, ErrSignInRequired)
		require.Len(t, f.store.List(ctx), 1)
	})

	t.Run("Orders", func(t *testing.T) {
		f := newFixture("")
		_, err := f.controller.Orders(ctx)
		require.ErrorIs(t, err, session.ErrNoSession)

		require.NoError(t, f.sessions.Establish(ctx, "a@x", models.RoleConsumer))
		orders, err := f.controller.Orders(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		require.Equal(t, 1001, orders[0].ID)
	})
}
