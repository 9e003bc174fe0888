package farmchainx

// Session is the viewer the server currently holds.
type Session struct {
	Identity string `json:"identity"`
	Role     string `json:"role"`
}

// Anonymous reports whether the server answered with a session that has no
// signed-in identity.
func (s Session) Anonymous() bool {
	return s.Identity == ""
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProductDraft is the user-supplied part of a product.
type ProductDraft struct {
	Name          string `json:"name"`
	CropType      string `json:"cropType"`
	SoilType      string `json:"soilType"`
	Status        string `json:"status"`
	Pesticides    string `json:"pesticides"`
	PlantedDate   string `json:"plantedDate"`
	HarvestedDate string `json:"harvestedDate"`
	UseBefore     string `json:"useBefore"`
	Location      string `json:"location"`
}

// ProductRecord is a stored product as the server returns it.
type ProductRecord struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CropType      string `json:"cropType"`
	SoilType      string `json:"soilType"`
	Status        string `json:"status"`
	Pesticides    string `json:"pesticides"`
	PlantedDate   string `json:"plantedDate"`
	HarvestedDate string `json:"harvestedDate"`
	UseBefore     string `json:"useBefore"`
	Location      string `json:"location"`
	CreatedBy     string `json:"createdBy"`
	CreatedRole   string `json:"createdRole,omitempty"`
	ImageURL      string `json:"imageUrl"`
}

// Order is one row of the orders page.
type Order struct {
	ID       int    `json:"id"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

// ViewState is the transient dashboard state.
type ViewState struct {
	Page       string `json:"page"`
	FormOpen   bool   `json:"formOpen"`
	QRRecordID *int64 `json:"qrRecordId,omitempty"`
}

// DashboardView is the dashboard as rendered for the session.
type DashboardView struct {
	Title     string          `json:"title"`
	Session   Session         `json:"session"`
	CanManage bool            `json:"canManage"`
	State     ViewState       `json:"state"`
	Products  []ProductRecord `json:"products"`
}
