package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/practice/console/internal/domain/investigation"
	"github.com/practice/console/pkg/wire"
)

// parseLine reads a --test value of the form "TEST|reason|2006-01-02T15:04".
// The scheduled time is optional.
func parseLine(v string) (investigation.Draft, error) {
	parts := strings.Split(v, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return investigation.Draft{}, fmt.Errorf("invalid --test %q: want TEST|reason[|YYYY-MM-DDTHH:MM]", v)
	}
	d := investigation.Draft{
		TestType: strings.TrimSpace(parts[0]),
		Reason:   strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		d.ScheduledDateTime = strings.TrimSpace(parts[2])
	}
	return d, nil
}

func buildForm(patient, paymentMethod string, tests []string) (*investigation.Form, error) {
	f := investigation.NewForm()
	if err := f.SetPatient(wire.FlexID(patient)); err != nil {
		return nil, err
	}
	f.PaymentMethod = paymentMethod
	for _, t := range tests {
		d, err := parseLine(t)
		if err != nil {
			return nil, err
		}
		f.AddLine(d)
	}
	return f, nil
}

// loadForm builds a new form, or for an edit hydrates the stored request and
// applies the flags on top of it.
func loadForm(ctx context.Context, a *app, editing, patient, paymentMethod string, tests []string) (*investigation.Form, error) {
	if editing == "" {
		return buildForm(patient, paymentMethod, tests)
	}
	f, err := a.investigations.EditForm(ctx, editing)
	if err != nil {
		return nil, err
	}
	var lines []investigation.Draft
	for _, t := range tests {
		d, err := parseLine(t)
		if err != nil {
			return nil, err
		}
		lines = append(lines, d)
	}
	if err := f.ApplyEdit(wire.FlexID(patient), paymentMethod, lines); err != nil {
		return nil, err
	}
	return f, nil
}

func investigationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "investigations",
		Aliases: []string{"inv"},
		Short:   "Investigation requests",
	}

	listingsCmd := &cobra.Command{
		Use:   "listings",
		Short: "List the tests that can be requested, with prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rd := a.investigations.LoadReferenceData(ctx)
				if rd.Error != "" {
					return fmt.Errorf("%s", rd.Error)
				}
				if names, _ := cmd.Flags().GetBool("names"); names {
					for _, n := range rd.Listings.Names() {
						fmt.Fprintln(cmd.OutOrStdout(), n)
					}
					return nil
				}
				return printJSON(cmd.OutOrStdout(), rd.Listings)
			})
		},
	}
	listingsCmd.Flags().Bool("names", false, "print only the test names, one per line")

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List pending investigation requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				reqs, err := a.investigations.PendingInvestigations(ctx, days)
				if err != nil {
					return err
				}
				views := make([]investigation.RequestView, 0, len(reqs))
				for _, r := range reqs {
					views = append(views, investigation.NormalizeRequest(r))
				}
				return printJSON(cmd.OutOrStdout(), views)
			})
		},
	}
	pendingCmd.Flags().Int("days", 0, "only requests from the last N days")

	submit := func(cmd *cobra.Command, editing string) error {
		patient, _ := cmd.Flags().GetString("patient")
		payment, _ := cmd.Flags().GetString("payment-method")
		tests, _ := cmd.Flags().GetStringArray("test")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			f, err := loadForm(ctx, a, editing, patient, payment, tests)
			if err != nil {
				return err
			}
			if err := a.investigations.AttachListings(ctx, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "total: %.2f\n", investigation.CalculateTotal(f.Lines))
			resp, err := a.investigations.Submit(ctx, f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		})
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an investigation request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, "")
		},
	}
	updateCmd := &cobra.Command{
		Use:   "update <request-id>",
		Short: "Replace the lines of an existing request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, args[0])
		},
	}
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().String("patient", "", "patient id")
		c.Flags().String("payment-method", "", "payment method")
		c.Flags().StringArray("test", nil, `line item "TEST|reason|YYYY-MM-DDTHH:MM" (repeatable)`)
	}
	createCmd.MarkFlagRequired("patient")
	updateCmd.Flags().Lookup("patient").Usage = "patient id (must match the stored request)"
	updateCmd.Flags().Lookup("test").Usage = `replacement line items "TEST|reason|YYYY-MM-DDTHH:MM"; stored lines are kept when omitted`

	orderCmd := &cobra.Command{
		Use:   "order <request-id>",
		Short: "Turn a pending request into a payable order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				req, err := a.investigations.RequestByID(ctx, args[0])
				if err != nil {
					return err
				}
				resp, err := a.investigations.CreateOrder(ctx, *req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.AddCommand(listingsCmd, pendingCmd, createCmd, updateCmd, orderCmd)
	return cmd
}

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Investigation orders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List investigation orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				orders, err := a.investigations.ListOrders(ctx)
				if err != nil {
					return err
				}
				views := make([]investigation.OrderView, 0, len(orders))
				for _, o := range orders {
					views = append(views, investigation.NormalizeOrder(o))
				}
				return printJSON(cmd.OutOrStdout(), views)
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one order and its latest payment checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				o, err := a.investigations.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				if cp, ok := investigation.LatestCheckpoint(*o); ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "latest checkpoint: %s at %s\n", cp.Status, cp.Created)
				}
				return printJSON(cmd.OutOrStdout(), investigation.NormalizeOrder(*o))
			})
		},
	}

	checkoutCmd := &cobra.Command{
		Use:   "checkout <order-id>",
		Short: "Print the payment link of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.investigations.Checkout(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, getCmd, checkoutCmd)
	return cmd
}
