package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/practice/console/internal/domain/dashboard"
	"github.com/practice/console/pkg/wire"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard [patient-id]",
		Short: "Show the provider dashboard or one patient's record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if len(args) == 1 {
					p, err := a.dashboard.PatientDetail(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), p)
				}
				d, err := a.dashboard.Dashboard(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}
}

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "The provider's patients",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List patients with their subscription status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			query, _ := cmd.Flags().GetString("q")
			f := dashboard.PatientFilter{Status: dashboard.SubscriptionStatus(status), Query: query}
			if f.Status != "" && !f.Status.Valid() {
				return fmt.Errorf("--status must be one of: active pending churned no_subscription")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				patients, err := a.dashboard.AllPatients(ctx, f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, p := range patients {
					fmt.Fprintf(out, "%-8s  %-28s  %-16s  %s\n", p.ID, p.FullName(), p.PhoneNumber, p.SubscriptionStatus.Label())
				}
				counts := dashboard.CountBySubscription(patients)
				fmt.Fprintf(cmd.ErrOrStderr(), "%d patients: %d active, %d pending, %d churned, %d without subscription\n",
					len(patients), counts[dashboard.SubscriptionActive], counts[dashboard.SubscriptionPending],
					counts[dashboard.SubscriptionChurned], counts[dashboard.SubscriptionNone])
				return nil
			})
		},
	}
	listCmd.Flags().String("status", "", "filter by subscription status")
	listCmd.Flags().String("q", "", "filter by name, phone or email")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &dashboard.CreatePatientRequest{}
			req.FirstName, _ = cmd.Flags().GetString("first-name")
			req.LastName, _ = cmd.Flags().GetString("last-name")
			req.PhoneNumber, _ = cmd.Flags().GetString("phone")
			req.Email, _ = cmd.Flags().GetString("email")
			req.Gender, _ = cmd.Flags().GetString("gender")
			req.DateOfBirth, _ = cmd.Flags().GetString("dob")
			conditions, _ := cmd.Flags().GetString("conditions")
			for _, c := range strings.Split(conditions, ",") {
				if c = strings.TrimSpace(c); c != "" {
					req.ChronicConditions = append(req.ChronicConditions, c)
				}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, err := a.dashboard.CreatePatient(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	createCmd.Flags().String("first-name", "", "first name")
	createCmd.Flags().String("last-name", "", "last name")
	createCmd.Flags().String("phone", "", "phone number")
	createCmd.Flags().String("email", "", "email address")
	createCmd.Flags().String("gender", "", "male or female")
	createCmd.Flags().String("dob", "", "date of birth, YYYY-MM-DD")
	createCmd.Flags().String("conditions", "", "comma separated chronic conditions")

	bookCmd := &cobra.Command{
		Use:   "book <patient-id>",
		Short: "Book an appointment for a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &dashboard.BookAppointmentRequest{PatientID: wire.FlexID(args[0])}
			req.Date, _ = cmd.Flags().GetString("date")
			req.Time, _ = cmd.Flags().GetString("time")
			req.Reason, _ = cmd.Flags().GetString("reason")
			req.Channel, _ = cmd.Flags().GetString("channel")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				appt, err := a.dashboard.BookAppointment(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), appt)
			})
		},
	}
	bookCmd.Flags().String("date", "", "YYYY-MM-DD")
	bookCmd.Flags().String("time", "", "HH:MM")
	bookCmd.Flags().String("reason", "", "reason for the visit")
	bookCmd.Flags().String("channel", "", "in_person, video or phone")

	cmd.AddCommand(listCmd, createCmd, bookCmd)
	return cmd
}
