package dashboard

import "github.com/mamadbah2/farmchainx/internal/domain/models"

// Page names a dashboard sub-view.
type Page string

const (
	PageProducts Page = "products"
	PageOrders   Page = "orders"
	PageSettings Page = "settings"
	PageHelp     Page = "help"
	PageMenu     Page = "menu"
)

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	switch p {
	case PageProducts, PageOrders, PageSettings, PageHelp, PageMenu:
		return true
	default:
		return false
	}
}

// ViewState is never persisted and resets on every dashboard entry.
type ViewState struct {
	Page       Page   `json:"page"`
	FormOpen   bool   `json:"formOpen"`
	QRRecordID *int64 `json:"qrRecordId,omitempty"`
}

func defaultState() ViewState {
	return ViewState{Page: PageProducts}
}

func (s ViewState) clone() ViewState {
	if s.QRRecordID != nil {
		id := *s.QRRecordID
		s.QRRecordID = &id
	}
	return s
}

// View is what the dashboard renders for the active session.
type View struct {
	Title     string                 `json:"title"`
	Session   models.Session         `json:"session"`
	CanManage bool                   `json:"canManage"`
	State     ViewState              `json:"state"`
	Products  []models.ProductRecord `json:"products"`
}
