// Package dashboard drives the role-scoped product dashboard: it reads the
// session, rehydrates the record store, applies the visibility rule and owns
// the transient view state.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/metrics"
	"github.com/mamadbah2/farmchainx/internal/service/records"
	"github.com/mamadbah2/farmchainx/internal/service/visibility"
)

var (
	// ErrForbidden indicates the session role may not manage products.
	ErrForbidden = errors.New("role may not manage products")

	// ErrSignInRequired indicates an anonymous session tried to manage products.
	ErrSignInRequired = errors.New("sign in to manage products")
)

// SessionSource provides and clears the active session.
type SessionSource interface {
	Current(ctx context.Context) (models.Session, error)
	Clear(ctx context.Context) error
}

// RecordStore is the product collection the dashboard works on.
type RecordStore interface {
	Load(ctx context.Context) []models.ProductRecord
	Add(ctx context.Context, draft models.ProductDraft, creator models.Session) (models.ProductRecord, error)
	Remove(ctx context.Context, id int64, confirm records.Confirmer) (bool, error)
	List(ctx context.Context) []models.ProductRecord
	Find(ctx context.Context, id int64) (models.ProductRecord, error)
}

// MediaUploader stores product images and returns stable references.
type MediaUploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// Controller orchestrates session, store and visibility filter.
type Controller struct {
	sessions SessionSource
	records  RecordStore
	filter   visibility.Filter
	media    MediaUploader
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu    sync.Mutex
	state ViewState
}

// NewController wires a dashboard controller. media and m may be nil.
func NewController(sessions SessionSource, store RecordStore, filter visibility.Filter, media MediaUploader, m *metrics.Metrics, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		sessions: sessions,
		records:  store,
		filter:   filter,
		media:    media,
		metrics:  m,
		logger:   logger,
		state:    defaultState(),
	}
}

// Enter reads the session, rehydrates the store and resets the view state.
func (c *Controller) Enter(ctx context.Context) (View, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return View{}, err
	}

	all := c.records.Load(ctx)

	c.mu.Lock()
	c.state = defaultState()
	state := c.state.clone()
	c.mu.Unlock()

	c.logger.Debug("dashboard entered", zap.String("identity", sess.Identity), zap.String("role", string(sess.Role)), zap.Int("records", len(all)))
	return c.buildView(sess, state, all), nil
}

// View renders the dashboard without resetting state.
func (c *Controller) View(ctx context.Context) (View, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return View{}, err
	}
	return c.buildView(sess, c.State(), c.records.List(ctx)), nil
}

func (c *Controller) buildView(sess models.Session, state ViewState, all []models.ProductRecord) View {
	return View{
		Title:     title(sess.Role),
		Session:   sess,
		CanManage: canManage(sess),
		State:     state,
		Products:  c.filter.Visible(all, sess.Role, sess.Identity),
	}
}

// Products returns the records visible to the active session.
func (c *Controller) Products(ctx context.Context) ([]models.ProductRecord, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	return c.filter.Visible(c.records.List(ctx), sess.Role, sess.Identity), nil
}

// AddProduct stores the optional image and appends a record created by the
// active session. The form closes on success.
func (c *Controller) AddProduct(ctx context.Context, draft models.ProductDraft, image io.Reader) (models.ProductRecord, error) {
	sess, err := c.managingSession(ctx)
	if err != nil {
		return models.ProductRecord{}, err
	}

	// reject the draft before any upload lands in media storage
	if err := draft.Normalize().Validate(); err != nil {
		c.metrics.ProductMutation("add", err)
		return models.ProductRecord{}, err
	}

	if image != nil {
		if c.media == nil {
			return models.ProductRecord{}, errors.New("image uploads are not configured")
		}
		ref, err := c.media.Upload(ctx, image)
		if err != nil {
			c.metrics.ProductMutation("add", err)
			return models.ProductRecord{}, fmt.Errorf("upload image: %w", err)
		}
		draft.ImageURL = ref
	}

	record, err := c.records.Add(ctx, draft, sess)
	c.metrics.ProductMutation("add", err)
	if err != nil {
		return models.ProductRecord{}, err
	}

	c.mu.Lock()
	c.state.FormOpen = false
	c.mu.Unlock()
	return record, nil
}

// DeleteProduct removes a visible record once confirm agrees. Records the
// session cannot see are treated as absent.
func (c *Controller) DeleteProduct(ctx context.Context, id int64, confirm records.Confirmer) (bool, error) {
	sess, err := c.managingSession(ctx)
	if err != nil {
		return false, err
	}

	record, err := c.records.Find(ctx, id)
	if errors.Is(err, records.ErrNotFound) || (err == nil && !c.filter.Allows(record, sess.Role, sess.Identity)) {
		c.logger.Debug("delete of unknown product ignored", zap.Int64("id", id))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	removed, err := c.records.Remove(ctx, id, confirm)
	if errors.Is(err, records.ErrConfirmationRequired) {
		return false, err
	}
	if err != nil {
		c.metrics.ProductMutation("delete", err)
		return false, err
	}
	if !removed {
		return false, nil
	}

	c.metrics.ProductMutation("delete", nil)
	c.mu.Lock()
	if c.state.QRRecordID != nil && *c.state.QRRecordID == id {
		c.state.QRRecordID = nil
	}
	c.mu.Unlock()
	return true, nil
}

// VisibleProduct returns the record if the active session may see it.
func (c *Controller) VisibleProduct(ctx context.Context, id int64) (models.ProductRecord, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return models.ProductRecord{}, err
	}
	record, err := c.records.Find(ctx, id)
	if err != nil {
		return models.ProductRecord{}, err
	}
	if !c.filter.Allows(record, sess.Role, sess.Identity) {
		return models.ProductRecord{}, records.ErrNotFound
	}
	return record, nil
}

// OpenQR opens the QR modal on a visible record.
func (c *Controller) OpenQR(ctx context.Context, id int64) (models.ProductRecord, error) {
	record, err := c.VisibleProduct(ctx, id)
	if err != nil {
		return models.ProductRecord{}, err
	}
	c.mu.Lock()
	c.state.QRRecordID = &record.ID
	c.mu.Unlock()
	return record, nil
}

// CloseQR closes the QR modal.
func (c *Controller) CloseQR() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.QRRecordID = nil
	return c.state.clone()
}

// SelectPage switches the sub-view.
func (c *Controller) SelectPage(page Page) (ViewState, error) {
	if !page.Valid() {
		return ViewState{}, &models.ValidationError{Field: "page", Message: fmt.Sprintf("unknown page %q", page)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Page = page
	return c.state.clone(), nil
}

// ToggleForm opens or closes the add-product form for managing roles.
func (c *Controller) ToggleForm(ctx context.Context) (ViewState, error) {
	if _, err := c.managingSession(ctx); err != nil {
		return ViewState{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.FormOpen = !c.state.FormOpen
	return c.state.clone(), nil
}

// State returns a copy of the transient view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Orders returns the demo orders shown on the orders page.
func (c *Controller) Orders(ctx context.Context) ([]models.Order, error) {
	if _, err := c.sessions.Current(ctx); err != nil {
		return nil, err
	}
	out := make([]models.Order, len(demoOrders))
	copy(out, demoOrders)
	return out, nil
}

// Logout clears the session and resets the view state.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.sessions.Clear(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = defaultState()
	c.mu.Unlock()
	return nil
}

// title renders "<Role> Dashboard". Casers are stateful, so one is built per call.
func title(role models.Role) string {
	return cases.Title(language.English).String(string(role)) + " Dashboard"
}

func (c *Controller) managingSession(ctx context.Context) (models.Session, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return models.Session{}, err
	}
	if sess.Anonymous() {
		return models.Session{}, ErrSignInRequired
	}
	if !sess.Role.CanManageProducts() {
		return models.Session{}, ErrForbidden
	}
	return sess, nil
}

// canManage reports whether sess may add and delete. Records always carry
// the identity of their creator, so anonymous sessions only browse.
func canManage(sess models.Session) bool {
	return !sess.Anonymous() && sess.Role.CanManageProducts()
}

var demoOrders = []models.Order{
	{ID: 1001, Product: "Tomatoes", Quantity: 50, Status: "Delivered"},
	{ID: 1002, Product: "Wheat", Quantity: 30, Status: "Received"},
	{ID: 1003, Product: "Rice", Quantity: 20, Status: "Pending"},
}
