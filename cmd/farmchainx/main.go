package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/farmchainx/pkg/clients/farmchainx"
)

const defaultServer = "http://localhost:8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newClient := func(server string) farmchainx.Client { return farmchainx.NewClient(server) }
	rootCmd := newRootCommand(newClient, os.Stdin, os.Stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "farmchainx: %v\n", err)
		os.Exit(1)
	}
}

// cli carries what every subcommand needs.
type cli struct {
	server    string
	newClient func(server string) farmchainx.Client
	in        io.Reader
	out       io.Writer
}

func (c *cli) client() farmchainx.Client {
	return c.newClient(c.server)
}

func newRootCommand(newClient func(string) farmchainx.Client, in io.Reader, out io.Writer) *cobra.Command {
	app := &cli{newClient: newClient, in: in, out: out}

	cmd := &cobra.Command{
		Use:   "farmchainx",
		Short: "FarmChainX traceability CLI",
		Long: `FarmChainX CLI drives a FarmChainX server: register or log in, browse the
role-scoped product dashboard, add and delete products and fetch their QR codes.`,
		SilenceUsage: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&app.server, "server", envOr("FARMCHAINX_SERVER", defaultServer), "FarmChainX server base URL")
	cmd.AddCommand(
		app.newRegisterCmd(),
		app.newLoginCmd(),
		app.newLogoutCmd(),
		app.newWhoamiCmd(),
		app.newDashboardCmd(),
		app.newProductsCmd(),
		app.newQRCmd(),
		app.newOrdersCmd(),
		app.newExportCmd(),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
