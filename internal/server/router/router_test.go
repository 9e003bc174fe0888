package router

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/media"
	"github.com/mamadbah2/farmchainx/internal/metrics"
	"github.com/mamadbah2/farmchainx/internal/repository/memory"
	"github.com/mamadbah2/farmchainx/internal/server/handlers"
	"github.com/mamadbah2/farmchainx/internal/service/dashboard"
	"github.com/mamadbah2/farmchainx/internal/service/records"
	"github.com/mamadbah2/farmchainx/internal/service/session"
	"github.com/mamadbah2/farmchainx/internal/service/visibility"
)

type stubExporter struct{ calls int }

func (s *stubExporter) Export(context.Context) (int, error) {
	s.calls++
	return 2, nil
}

func newEngine(t *testing.T, exporter handlers.Exporter) *gin.Engine {
	t.Helper()

	storage := memory.NewStore()
	sessions := session.NewManager(storage, "", nil)
	auth := session.NewAuthenticator(storage, sessions, nil)
	store := records.NewStore(storage, nil)
	mediaSvc := media.NewService(media.NewMemoryBackend(), 1<<20, nil)
	m := metrics.New()
	controller := dashboard.NewController(sessions, store, visibility.NewFilter(visibility.RuleStatus), mediaSvc, m, nil)

	return New(Handlers{
		Auth:      handlers.NewAuthHandler(auth, sessions, controller, m, nil),
		Products:  handlers.NewProductHandler(controller, mediaSvc, nil),
		Dashboard: handlers.NewDashboardHandler(controller, sessions, exporter, nil),
		Metrics:   m.Handler(),
	}, nil)
}

func do(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func register(t *testing.T, engine *gin.Engine, email string, role models.Role) {
	t.Helper()
	rec := do(t, engine, http.MethodPost, "/register", models.RegisterRequest{
		Name: "Awa", Email: email, Password: "pw", ConfirmPassword: "pw", Role: string(role),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	engine := newEngine(t, nil)

	rec := do(t, engine, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = do(t, engine, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")

	rec = do(t, engine, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/dashboard")
}

func TestAuthFlow(t *testing.T) {
	engine := newEngine(t, nil)

	t.Run("NoSession", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do(t, engine, http.MethodGet, "/session", nil).Code)
		require.Equal(t, http.StatusUnauthorized, do(t, engine, http.MethodGet, "/dashboard", nil).Code)
	})

	t.Run("LoginBeforeRegister", func(t *testing.T) {
		rec := do(t, engine, http.MethodPost, "/login", models.LoginRequest{Email: "a@x", Password: "pw"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("RegisterValidation", func(t *testing.T) {
		rec := do(t, engine, http.MethodPost, "/register", map[string]string{"name": "Awa"})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, engine, http.MethodPost, "/register", models.RegisterRequest{
			Name: "Awa", Email: "a@x", Password: "pw", ConfirmPassword: "other", Role: "farmer",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Passwords do not match.")
	})

	t.Run("RegisterLogoutLogin", func(t *testing.T) {
		register(t, engine, "a@x", models.RoleFarmer)

		rec := do(t, engine, http.MethodGet, "/session", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"identity":"a@x"`)

		require.Equal(t, http.StatusNoContent, do(t, engine, http.MethodPost, "/logout", nil).Code)
		require.Equal(t, http.StatusUnauthorized, do(t, engine, http.MethodGet, "/session", nil).Code)

		rec = do(t, engine, http.MethodPost, "/login", models.LoginRequest{Email: "a@x", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = do(t, engine, http.MethodPost, "/login", models.LoginRequest{Email: " a@x ", Password: "pw"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Contains(t, rec.Body.String(), `"redirect":"/dashboard"`)
	})
}

func TestProductLifecycle(t *testing.T) {
	engine := newEngine(t, nil)
	register(t, engine, "a@x", models.RoleFarmer)

	rec := do(t, engine, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[dashboard.View](t, rec)
	require.Equal(t, "Farmer Dashboard", view.Title)

	rec = do(t, engine, http.MethodPost, "/products", models.ProductDraft{Name: "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Enter product name")

	rec = do(t, engine, http.MethodPost, "/products", models.ProductDraft{Name: "Tomatoes", CropType: "vegetables", PlantedDate: "2024-03-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Product models.ProductRecord `json:"product"`
	}](t, rec).Product
	require.Equal(t, "a@x", created.CreatedBy)
	require.Equal(t, "farmer", created.Status)

	rec = do(t, engine, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[struct {
		Products []models.ProductRecord `json:"products"`
	}](t, rec).Products
	require.Equal(t, []models.ProductRecord{created}, listed)

	id := strconv.FormatInt(created.ID, 10)

	rec = do(t, engine, http.MethodGet, "/products/"+id+"/qr?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payload models.ProductRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, created, payload)

	rec = do(t, engine, http.MethodGet, "/products/"+id+"/qr", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	require.NoError(t, err)

	rec = do(t, engine, http.MethodPost, "/products/"+id+"/qr/open", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"qrRecordId":`+id)

	require.Equal(t, http.StatusBadRequest, do(t, engine, http.MethodGet, "/products/abc/qr", nil).Code)
	require.Equal(t, http.StatusNotFound, do(t, engine, http.MethodGet, "/products/1/qr", nil).Code)

	require.Equal(t, http.StatusPreconditionRequired, do(t, engine, http.MethodDelete, "/products/"+id, nil).Code)
	require.Equal(t, http.StatusNoContent, do(t, engine, http.MethodDelete, "/products/"+id+"?confirm=true", nil).Code)
	require.Equal(t, http.StatusNoContent, do(t, engine, http.MethodDelete, "/products/"+id+"?confirm=true", nil).Code)

	rec = do(t, engine, http.MethodGet, "/products", nil)
	require.Contains(t, rec.Body.String(), `"products":[]`)
}

func TestConsumerIsReadOnly(t *testing.T) {
	engine := newEngine(t, nil)
	register(t, engine, "c@x", models.RoleConsumer)

	rec := do(t, engine, http.MethodPost, "/products", models.ProductDraft{Name: "Rice"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, http.StatusForbidden, do(t, engine, http.MethodPost, "/dashboard/form", nil).Code)
	require.Equal(t, http.StatusOK, do(t, engine, http.MethodGet, "/orders", nil).Code)
}

func TestMultipartUploadAndMedia(t *testing.T) {
	engine := newEngine(t, nil)
	register(t, engine, "a@x", models.RoleFarmer)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("name", "Wheat"))
	require.NoError(t, writer.WriteField("cropType", "grains"))
	part, err := writer.CreateFormFile("imageFile", "wheat.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[struct {
		Product models.ProductRecord `json:"product"`
	}](t, rec).Product
	require.Equal(t, "Wheat", created.Name)
	require.True(t, strings.HasPrefix(created.ImageURL, media.RefPrefix))

	rec = do(t, engine, http.MethodGet, "/"+created.ImageURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, pngBuf.Bytes(), rec.Body.Bytes())

	require.Equal(t, http.StatusNotFound, do(t, engine, http.MethodGet, "/media/not-a-key", nil).Code)
}

func TestDashboardState(t *testing.T) {
	engine := newEngine(t, nil)
	register(t, engine, "a@x", models.RoleFarmer)

	rec := do(t, engine, http.MethodPost, "/dashboard/page", map[string]string{"page": "orders"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"page":"orders"`)

	require.Equal(t, http.StatusBadRequest, do(t, engine, http.MethodPost, "/dashboard/page", map[string]string{"page": "reports"}).Code)

	rec = do(t, engine, http.MethodPost, "/dashboard/form", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"formOpen":true`)

	rec = do(t, engine, http.MethodPost, "/dashboard/qr/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, engine, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[struct {
		Orders []models.Order `json:"orders"`
	}](t, rec).Orders
	require.Len(t, orders, 3)
	require.Equal(t, "Tomatoes", orders[0].Product)
}

func TestExport(t *testing.T) {
	t.Run("NotConfigured", func(t *testing.T) {
		engine := newEngine(t, nil)
		register(t, engine, "root@x", models.RoleAdmin)
		require.Equal(t, http.StatusServiceUnavailable, do(t, engine, http.MethodPost, "/export", nil).Code)
	})

	t.Run("AdminOnly", func(t *testing.T) {
		exporter := &stubExporter{}
		engine := newEngine(t, exporter)

		require.Equal(t, http.StatusUnauthorized, do(t, engine, http.MethodPost, "/export", nil).Code)

		register(t, engine, "a@x", models.RoleFarmer)
		require.Equal(t, http.StatusForbidden, do(t, engine, http.MethodPost, "/export", nil).Code)

		register(t, engine, "root@x", models.RoleAdmin)
		rec := do(t, engine, http.MethodPost, "/export", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"exported":2`)
		require.Equal(t, 1, exporter.calls)
	})
}
