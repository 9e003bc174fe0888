package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmchainx/pkg/clients/farmchainx"
)

type fakeClient struct {
	server   string
	deleted  []int64
	added    []farmchainx.ProductDraft
	register farmchainx.RegisterRequest
}

func (f *fakeClient) Register(_ context.Context, req farmchainx.RegisterRequest) (farmchainx.Session, error) {
	f.register = req
	return farmchainx.Session{Identity: req.Email, Role: req.Role}, nil
}

func (f *fakeClient) Login(_ context.Context, email, _ string) (farmchainx.Session, error) {
	return farmchainx.Session{Identity: email, Role: "farmer"}, nil
}

func (f *fakeClient) Logout(context.Context) error { return nil }

func (f *fakeClient) Session(context.Context) (farmchainx.Session, error) {
	return farmchainx.Session{Identity: "a@x", Role: "farmer"}, nil
}

func (f *fakeClient) Dashboard(context.Context) (farmchainx.DashboardView, error) {
	return farmchainx.DashboardView{Title: "Farmer Dashboard", CanManage: true, Products: f.products()}, nil
}

func (f *fakeClient) Products(context.Context) ([]farmchainx.ProductRecord, error) {
	return f.products(), nil
}

func (f *fakeClient) products() []farmchainx.ProductRecord {
	return []farmchainx.ProductRecord{{ID: 7, Name: "Tomatoes", Status: "farmer", CreatedBy: "a@x"}}
}

func (f *fakeClient) AddProduct(_ context.Context, draft farmchainx.ProductDraft, _ string) (farmchainx.ProductRecord, error) {
	f.added = append(f.added, draft)
	return farmchainx.ProductRecord{ID: 8, Name: draft.Name}, nil
}

func (f *fakeClient) DeleteProduct(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) QRCode(context.Context, int64, int) ([]byte, error) {
	return []byte("png"), nil
}

func (f *fakeClient) Orders(context.Context) ([]farmchainx.Order, error) {
	return []farmchainx.Order{{ID: 1001, Product: "Tomatoes", Quantity: 50, Status: "Delivered"}}, nil
}

func (f *fakeClient) Export(context.Context) (int, error) { return 3, nil }

func run(t *testing.T, fake *fakeClient, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	newClient := func(server string) farmchainx.Client {
		fake.server = server
		return fake
	}
	cmd := newRootCommand(newClient, strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestCommands(t *testing.T) {
	t.Run("RegisterDefaultsConfirmation", func(t *testing.T) {
		fake := &fakeClient{}
		out := run(t, fake, "", "--server", "http://farm:9000", "register",
			"--name", "Awa", "--email", "a@x", "--password", "pw", "--role", "farmer")
		require.Contains(t, out, "Signed in as a@x (farmer)")
		require.Equal(t, "pw", fake.register.ConfirmPassword)
		require.Equal(t, "http://farm:9000", fake.server)
	})

	t.Run("Dashboard", func(t *testing.T) {
		out := run(t, &fakeClient{}, "", "dashboard")
		require.Contains(t, out, "Farmer Dashboard")
		require.Contains(t, out, "Tomatoes")
	})

	t.Run("ProductsAdd", func(t *testing.T) {
		fake := &fakeClient{}
		out := run(t, fake, "", "products", "add", "--name", "Rice", "--planted", "2024-03-01")
		require.Contains(t, out, "Added product 8 (Rice)")
		require.Equal(t, "2024-03-01", fake.added[0].PlantedDate)
	})

	t.Run("DeletePrompts", func(t *testing.T) {
		fake := &fakeClient{}
		out := run(t, fake, "n\n", "products", "delete", "7")
		require.Contains(t, out, "Delete this product? [y/N]")
		require.Contains(t, out, "Cancelled")
		require.Empty(t, fake.deleted)

		run(t, fake, "y\n", "products", "delete", "7")
		require.Equal(t, []int64{7}, fake.deleted)

		run(t, fake, "", "products", "delete", "--yes", "9")
		require.Equal(t, []int64{7, 9}, fake.deleted)
	})

	t.Run("QR", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "qr.png")
		out := run(t, &fakeClient{}, "", "qr", "7", "-o", path)
		require.Contains(t, out, path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, []byte("png"), data)
	})

	t.Run("OrdersAndExport", func(t *testing.T) {
		require.Contains(t, run(t, &fakeClient{}, "", "orders"), "Delivered")
		require.Contains(t, run(t, &fakeClient{}, "", "export"), "Exported 3 products")
	})
}
