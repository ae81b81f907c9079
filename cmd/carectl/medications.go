package main

import (
	"errors"

	"github.com/spf13/cobra"

	"carelink.org/internal/care"
)

func newMedicationsCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "med",
		Aliases: []string{"medication", "medications"},
		Short:   "Manage medications",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if parent := cmd.Root().PersistentPreRunE; parent != nil {
				if err := parent(cmd, args); err != nil {
					return err
				}
			}
			return a().requireRole(care.RoleAdmin, care.RoleCaregiver)
		},
	}

	var filter care.MedicationFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List medications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a().meds.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"medications": items, "meta": a().meds.Cache().Meta()})
		},
	}
	list.Flags().StringVar(&filter.SeniorID, "senior", "", "filter by senior id")
	list.Flags().IntVar(&filter.Page, "page", 1, "page number")
	list.Flags().IntVar(&filter.Limit, "limit", 10, "page size")
	list.Flags().StringVar(&filter.Search, "search", "", "name search")
	list.Flags().StringVar(&filter.Sort, "sort", "", "sort direction (asc, desc)")
	list.Flags().StringVar(&filter.SortBy, "sort-by", "", "sort field")
	list.Flags().StringVar(&filter.IsActive, "active", "", "filter by active flag (true, false)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one medication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a().meds.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(m)
		},
	}

	var addReq care.AddMedicationRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a medication for a senior",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a().meds.Create(cmd.Context(), addReq)
			if err != nil {
				return err
			}
			a().log.Info().Str("id", m.ID).Str("name", m.Name).Msg("medication added")
			return printJSON(m)
		},
	}
	add.Flags().StringVar(&addReq.Name, "name", "", "medication name")
	add.Flags().StringVar(&addReq.Dosage, "dosage", "", "dosage, e.g. 10mg")
	add.Flags().StringVar(&addReq.Frequency, "frequency", "", "intake frequency")
	add.Flags().StringVar(&addReq.Instructions, "instructions", "", "intake instructions")
	add.Flags().StringVar(&addReq.StartDate, "start", "", "start date (YYYY-MM-DD)")
	add.Flags().StringVar(&addReq.EndDate, "end", "", "end date (YYYY-MM-DD)")
	add.Flags().StringVar(&addReq.SeniorID, "senior", "", "senior id")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update medication fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := care.UpdateMedicationRequest{
				Name:         stringFlag(cmd, "name"),
				Dosage:       stringFlag(cmd, "dosage"),
				Frequency:    stringFlag(cmd, "frequency"),
				Instructions: stringFlag(cmd, "instructions"),
				StartDate:    stringFlag(cmd, "start"),
				EndDate:      stringFlag(cmd, "end"),
				IsActive:     boolFlag(cmd, "active"),
			}
			m, err := a().meds.Update(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printJSON(m)
		},
	}
	update.Flags().String("name", "", "medication name")
	update.Flags().String("dosage", "", "dosage")
	update.Flags().String("frequency", "", "intake frequency")
	update.Flags().String("instructions", "", "intake instructions")
	update.Flags().String("start", "", "start date (YYYY-MM-DD)")
	update.Flags().String("end", "", "end date (YYYY-MM-DD)")
	update.Flags().Bool("active", false, "active flag")

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a medication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			if err := a().meds.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a().log.Info().Str("id", args[0]).Msg("medication deleted")
			return nil
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a medication's active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a().meds.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(m)
		},
	}

	cmd.AddCommand(list, get, add, update, del, toggle)
	return cmd
}

// stringFlag returns the flag value only when the user set it, so partial
// updates leave untouched fields out of the request body.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}
