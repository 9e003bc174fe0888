package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/farmchainx/pkg/clients/farmchainx"
)

func (c *cli) newRegisterCmd() *cobra.Command {
	var req farmchainx.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the user and open a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			sess, err := c.client().Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Registration successful! Signed in as %s (%s)\n", sess.Identity, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&req.Role, "role", "", "Role: farmer, distributor, retailer, consumer or admin")
	return cmd
}

func (c *cli) newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with the registered credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Signed in as %s (%s)\n", sess.Identity, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func (c *cli) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out")
			return nil
		},
	}
}

func (c *cli) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.client().Session(cmd.Context())
			if err != nil {
				return err
			}
			identity := sess.Identity
			if sess.Anonymous() {
				identity = "(anonymous)"
			}
			fmt.Fprintf(c.out, "%s %s\n", identity, sess.Role)
			return nil
		},
	}
}

func (c *cli) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Enter the dashboard and list visible products",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.client().Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, view.Title)
			if view.CanManage {
				fmt.Fprintln(c.out, "You can add and delete products.")
			}
			return c.printProducts(view.Products)
		},
	}
}

func (c *cli) newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List, add or delete products",
	}
	cmd.AddCommand(c.newProductsListCmd(), c.newProductsAddCmd(), c.newProductsDeleteCmd())
	return cmd
}

func (c *cli) newProductsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the products visible to the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := c.client().Products(cmd.Context())
			if err != nil {
				return err
			}
			return c.printProducts(products)
		},
	}
}

func (c *cli) newProductsAddCmd() *cobra.Command {
	var draft farmchainx.ProductDraft
	var image string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := c.client().AddProduct(cmd.Context(), draft, image)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Added product %d (%s)\n", record.ID, record.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "Product name")
	cmd.Flags().StringVar(&draft.CropType, "crop-type", "", "Crop type: vegetables, fruit, grains, dals, other")
	cmd.Flags().StringVar(&draft.SoilType, "soil-type", "", "Soil type: clay, sandy, loamy, silty")
	cmd.Flags().StringVar(&draft.Status, "status", "", "Status (defaults to your role)")
	cmd.Flags().StringVar(&draft.Pesticides, "pesticides", "", "Pesticides used")
	cmd.Flags().StringVar(&draft.PlantedDate, "planted", "", "Planted date, YYYY-MM-DD")
	cmd.Flags().StringVar(&draft.HarvestedDate, "harvested", "", "Harvested date, YYYY-MM-DD")
	cmd.Flags().StringVar(&draft.UseBefore, "use-before", "", "Use-before date, YYYY-MM-DD")
	cmd.Flags().StringVar(&draft.Location, "location", "", "Farm location")
	cmd.Flags().StringVar(&image, "image", "", "Path to a product image")
	return cmd
}

func (c *cli) newProductsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			if !yes && !c.confirm("Delete this product? [y/N] ") {
				fmt.Fprintln(c.out, "Cancelled")
				return nil
			}
			if err := c.client().DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted product %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (c *cli) newQRCmd() *cobra.Command {
	var output string
	var size int
	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Download the QR code of a product as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			png, err := c.client().QRCode(cmd.Context(), id, size)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("product-%d.png", id)
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(c.out, "QR code written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to product-<id>.png)")
	cmd.Flags().IntVar(&size, "size", 0, "Image size in pixels")
	return cmd
}

func (c *cli) newOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := c.client().Orders(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tPRODUCT\tQUANTITY\tSTATUS")
			for _, o := range orders {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", o.ID, o.Product, o.Quantity, o.Status)
			}
			return w.Flush()
		},
	}
}

func (c *cli) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export products to the configured spreadsheet (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := c.client().Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Exported %d products\n", count)
			return nil
		},
	}
}

func (c *cli) printProducts(products []farmchainx.ProductRecord) error {
	if len(products) == 0 {
		fmt.Fprintln(c.out, "No products yet.")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCROP\tSTATUS\tPLANTED\tUSE BEFORE\tCREATED BY")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.CropType, p.Status, p.PlantedDate, p.UseBefore, p.CreatedBy)
	}
	return w.Flush()
}

func (c *cli) confirm(prompt string) bool {
	fmt.Fprint(c.out, prompt)
	answer, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
