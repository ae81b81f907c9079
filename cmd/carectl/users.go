package main

import (
	"errors"

	"github.com/spf13/cobra"

	"carelink.org/internal/care"
	"carelink.org/internal/resources"
)

func newUsersCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "User administration",
	}

	adminOnly := func(cmd *cobra.Command, args []string) error {
		if parent := cmd.Root().PersistentPreRunE; parent != nil {
			if err := parent(cmd, args); err != nil {
				return err
			}
		}
		return a().requireRole(care.RoleAdmin)
	}
	caregiverOrAdmin := func(cmd *cobra.Command, args []string) error {
		if parent := cmd.Root().PersistentPreRunE; parent != nil {
			if err := parent(cmd, args); err != nil {
				return err
			}
		}
		return a().requireRole(care.RoleAdmin, care.RoleCaregiver)
	}

	var filter resources.UserFilter
	list := &cobra.Command{
		Use:               "list",
		Short:             "List accounts",
		PersistentPreRunE: adminOnly,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a().users.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"users": items, "meta": a().users.Cache().Meta()})
		},
	}
	list.Flags().StringVar(&filter.Role, "role", "", "filter by role (ADMIN, CAREGIVER, SENIOR)")
	list.Flags().IntVar(&filter.Page, "page", 1, "page number")
	list.Flags().IntVar(&filter.Limit, "limit", 10, "page size")
	list.Flags().StringVar(&filter.Search, "search", "", "name or email search")

	get := &cobra.Command{
		Use:               "get <id>",
		Short:             "Show one account",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: caregiverOrAdmin,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a().users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(u)
		},
	}

	var seniorReq care.CreateSeniorRequest
	createSenior := &cobra.Command{
		Use:               "create-senior",
		Short:             "Create a care recipient account",
		PersistentPreRunE: caregiverOrAdmin,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seniorReq.Email == "" || seniorReq.FirstName == "" || seniorReq.LastName == "" {
				return errors.New("--email, --first-name and --last-name are required")
			}
			if seniorReq.Password == "" {
				var err error
				if seniorReq.Password, err = promptSecret("Password"); err != nil {
					return err
				}
			}
			u, err := a().users.CreateSenior(cmd.Context(), seniorReq)
			if err != nil {
				return err
			}
			a().log.Info().Str("id", u.ID).Str("email", u.Email).Msg("senior created")
			return printJSON(u)
		},
	}
	createSenior.Flags().StringVar(&seniorReq.Email, "email", "", "account email")
	createSenior.Flags().StringVar(&seniorReq.Password, "password", "", "account password (prompted when omitted)")
	createSenior.Flags().StringVar(&seniorReq.FirstName, "first-name", "", "first name")
	createSenior.Flags().StringVar(&seniorReq.LastName, "last-name", "", "last name")
	createSenior.Flags().StringVar(&seniorReq.PhoneNumber, "phone", "", "phone number")
	createSenior.Flags().StringVar(&seniorReq.DateOfBirth, "date-of-birth", "", "date of birth (YYYY-MM-DD)")
	createSenior.Flags().StringVar(&seniorReq.Address, "address", "", "postal address")
	createSenior.Flags().StringVar(&seniorReq.EmergencyContact, "emergency-contact", "", "emergency contact")

	update := &cobra.Command{
		Use:               "update <id>",
		Short:             "Update account fields",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: adminOnly,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := care.UpdateUserRequest{
				FirstName:        stringFlag(cmd, "first-name"),
				LastName:         stringFlag(cmd, "last-name"),
				PhoneNumber:      stringFlag(cmd, "phone"),
				DateOfBirth:      stringFlag(cmd, "date-of-birth"),
				Address:          stringFlag(cmd, "address"),
				EmergencyContact: stringFlag(cmd, "emergency-contact"),
			}
			if cmd.Flags().Changed("role") {
				raw, _ := cmd.Flags().GetString("role")
				role, err := care.ParseRole(raw)
				if err != nil {
					return err
				}
				req.Role = &role
			}
			u, err := a().users.Update(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printJSON(u)
		},
	}
	update.Flags().String("first-name", "", "first name")
	update.Flags().String("last-name", "", "last name")
	update.Flags().String("phone", "", "phone number")
	update.Flags().String("date-of-birth", "", "date of birth (YYYY-MM-DD)")
	update.Flags().String("address", "", "postal address")
	update.Flags().String("emergency-contact", "", "emergency contact")
	update.Flags().String("role", "", "account role")

	var yes bool
	del := &cobra.Command{
		Use:               "delete <id>",
		Short:             "Delete an account",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: adminOnly,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			return a().users.Delete(cmd.Context(), args[0])
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	seniors := &cobra.Command{
		Use:               "seniors",
		Short:             "List the seniors assigned to you",
		PersistentPreRunE: caregiverOrAdmin,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a().users.CaregiverSeniors(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(items)
		},
	}

	cmd.AddCommand(list, get, createSenior, update, del, seniors)
	return cmd
}
