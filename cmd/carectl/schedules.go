package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"carelink.org/internal/care"
)

func newSchedulesCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"schedules"},
		Short:   "Manage dosing schedules",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if parent := cmd.Root().PersistentPreRunE; parent != nil {
				if err := parent(cmd, args); err != nil {
					return err
				}
			}
			return a().requireRole(care.RoleAdmin, care.RoleCaregiver)
		},
	}

	var filter care.ScheduleFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a().scheds.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"schedules": items, "meta": a().scheds.Cache().Meta()})
		},
	}
	list.Flags().StringVar(&filter.MedicationID, "medication", "", "filter by medication id")
	list.Flags().IntVar(&filter.Page, "page", 1, "page number")
	list.Flags().IntVar(&filter.Limit, "limit", 10, "page size")
	list.Flags().StringVar(&filter.IsActive, "active", "", "filter by active flag (true, false)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a().scheds.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(sc)
		},
	}

	var createReq care.CreateScheduleRequest
	var days []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a dosing slot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			createReq.DaysOfWeek = days
			sc, err := a().scheds.Create(cmd.Context(), createReq)
			if err != nil {
				return err
			}
			a().log.Info().Str("id", sc.ID).Str("time", sc.Time).Msg("schedule created")
			return printJSON(sc)
		},
	}
	create.Flags().StringVar(&createReq.MedicationID, "medication", "", "medication id")
	create.Flags().StringVar(&createReq.Time, "time", "", "wall-clock time (HH:MM)")
	create.Flags().StringSliceVar(&days, "days", nil, "weekdays, e.g. monday,thursday")

	var bulkMedication string
	var bulkSlots []string
	bulk := &cobra.Command{
		Use:   "bulk",
		Short: "Create several slots for one medication",
		Long:  "Each --slot is TIME@DAY,DAY..., e.g. --slot 08:00@monday,friday --slot 20:00@monday",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := care.CreateBulkScheduleRequest{MedicationID: bulkMedication}
			for _, raw := range bulkSlots {
				hhmm, dayList, ok := strings.Cut(raw, "@")
				if !ok {
					return errors.New("slot must be TIME@DAY,DAY...")
				}
				req.Schedules = append(req.Schedules, care.BulkScheduleSlot{
					Time:       hhmm,
					DaysOfWeek: strings.Split(dayList, ","),
				})
			}
			created, err := a().scheds.CreateBulk(cmd.Context(), req)
			if err != nil {
				return err
			}
			a().log.Info().Int("count", len(created)).Msg("schedules created")
			return printJSON(created)
		},
	}
	bulk.Flags().StringVar(&bulkMedication, "medication", "", "medication id")
	bulk.Flags().StringArrayVar(&bulkSlots, "slot", nil, "slot as TIME@DAY,DAY..., repeatable")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update schedule fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := care.UpdateScheduleRequest{
				Time:     stringFlag(cmd, "time"),
				IsActive: boolFlag(cmd, "active"),
			}
			if cmd.Flags().Changed("days") {
				req.DaysOfWeek, _ = cmd.Flags().GetStringSlice("days")
			}
			sc, err := a().scheds.Update(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printJSON(sc)
		},
	}
	update.Flags().String("time", "", "wall-clock time (HH:MM)")
	update.Flags().StringSlice("days", nil, "weekdays")
	update.Flags().Bool("active", false, "active flag")

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			return a().scheds.Delete(cmd.Context(), args[0])
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a schedule's active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a().scheds.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(sc)
		},
	}

	templates := &cobra.Command{
		Use:   "templates",
		Short: "List preset schedule templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpls, err := a().scheds.Templates(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(tpls)
		},
	}

	var days7 int
	reminders := &cobra.Command{
		Use:   "reminders <user-id>",
		Short: "Show upcoming dose reminders for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a().scheds.Reminders(cmd.Context(), args[0], days7)
			if err != nil {
				return err
			}
			return printJSON(items)
		},
	}
	reminders.Flags().IntVar(&days7, "days", 7, "look-ahead window in days")

	cmd.AddCommand(list, get, create, bulk, update, del, toggle, templates, reminders)
	return cmd
}
