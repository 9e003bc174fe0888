package farmchainx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client exposes the FarmChainX HTTP API operations used by the CLI.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (Session, error)
	Dashboard(ctx context.Context) (DashboardView, error)
	Products(ctx context.Context) ([]ProductRecord, error)
	AddProduct(ctx context.Context, draft ProductDraft, imagePath string) (ProductRecord, error)
	DeleteProduct(ctx context.Context, id int64) error
	QRCode(ctx context.Context, id int64, size int) ([]byte, error)
	Orders(ctx context.Context) ([]Order, error)
	Export(ctx context.Context) (int, error)
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("farmchainx api error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("farmchainx api error: status=%d, message=%s", e.StatusCode, e.Message)
}

// apiError mirrors the service error payload.
type apiError struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds an API client against baseURL.
func NewClient(baseURL string) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient}
}

type sessionResponse struct {
	Session Session `json:"session"`
}

func (c *APIClient) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	result := new(sessionResponse)
	if err := c.send(ctx, http.MethodPost, "/register", req, result); err != nil {
		return Session{}, fmt.Errorf("register: %w", err)
	}
	return result.Session, nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (Session, error) {
	result := new(sessionResponse)
	body := loginRequest{Email: email, Password: password}
	if err := c.send(ctx, http.MethodPost, "/login", body, result); err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	return result.Session, nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *APIClient) Session(ctx context.Context) (Session, error) {
	result := new(sessionResponse)
	if err := c.send(ctx, http.MethodGet, "/session", nil, result); err != nil {
		return Session{}, fmt.Errorf("session: %w", err)
	}
	return result.Session, nil
}

func (c *APIClient) Dashboard(ctx context.Context) (DashboardView, error) {
	var view DashboardView
	if err := c.send(ctx, http.MethodGet, "/dashboard", nil, &view); err != nil {
		return DashboardView{}, fmt.Errorf("dashboard: %w", err)
	}
	return view, nil
}

func (c *APIClient) Products(ctx context.Context) ([]ProductRecord, error) {
	result := new(struct {
		Products []ProductRecord `json:"products"`
	})
	if err := c.send(ctx, http.MethodGet, "/products", nil, result); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return result.Products, nil
}

// AddProduct creates a product. A non-empty imagePath is uploaded as the
// product image in a multipart request.
func (c *APIClient) AddProduct(ctx context.Context, draft ProductDraft, imagePath string) (ProductRecord, error) {
	result := new(struct {
		Product ProductRecord `json:"product"`
	})
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if imagePath == "" {
		req.SetHeader("Content-Type", "application/json").SetBody(draft)
	} else {
		req.SetFormData(map[string]string{
			"name":          draft.Name,
			"cropType":      draft.CropType,
			"soilType":      draft.SoilType,
			"status":        draft.Status,
			"pesticides":    draft.Pesticides,
			"plantedDate":   draft.PlantedDate,
			"harvestedDate": draft.HarvestedDate,
			"useBefore":     draft.UseBefore,
			"location":      draft.Location,
		}).SetFile("imageFile", imagePath)
	}

	resp, err := req.Post("/products")
	if err != nil {
		return ProductRecord{}, fmt.Errorf("add product: %w", err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return ProductRecord{}, fmt.Errorf("add product: %w", err)
	}
	return result.Product, nil
}

// DeleteProduct removes a product. Callers confirm with the user beforehand.
func (c *APIClient) DeleteProduct(ctx context.Context, id int64) error {
	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("confirm", "true").
		SetError(apiErr).
		Delete("/products/" + strconv.FormatInt(id, 10))
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}

// QRCode fetches the PNG QR symbol of a product.
func (c *APIClient) QRCode(ctx context.Context, id int64, size int) ([]byte, error) {
	apiErr := new(apiError)
	req := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "image/png").
		SetError(apiErr)
	if size > 0 {
		req.SetQueryParam("size", strconv.Itoa(size))
	}

	resp, err := req.Get("/products/" + strconv.FormatInt(id, 10) + "/qr")
	if err != nil {
		return nil, fmt.Errorf("qr code %d: %w", id, err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return nil, fmt.Errorf("qr code %d: %w", id, err)
	}
	return resp.Body(), nil
}

func (c *APIClient) Orders(ctx context.Context) ([]Order, error) {
	result := new(struct {
		Orders []Order `json:"orders"`
	})
	if err := c.send(ctx, http.MethodGet, "/orders", nil, result); err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}
	return result.Orders, nil
}

func (c *APIClient) Export(ctx context.Context) (int, error) {
	result := new(struct {
		Exported int `json:"exported"`
	})
	if err := c.send(ctx, http.MethodPost, "/export", nil, result); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return result.Exported, nil
}

func (c *APIClient) send(ctx context.Context, method, path string, body, result any) error {
	apiErr := new(apiError)
	req := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	return checkResponse(resp, apiErr)
}

func checkResponse(resp *resty.Response, apiErr *apiError) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	message := ""
	if apiErr != nil {
		message = apiErr.Error
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: message}
}
