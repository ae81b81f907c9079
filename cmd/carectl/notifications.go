package main

import (
	"errors"

	"github.com/spf13/cobra"

	"carelink.org/internal/care"
)

func newNotificationsCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notif",
		Aliases: []string{"notification", "notifications"},
		Short:   "Read and manage notifications",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if parent := cmd.Root().PersistentPreRunE; parent != nil {
				if err := parent(cmd, args); err != nil {
					return err
				}
			}
			// Every role sees its own notifications.
			return a().requireRole(care.RoleAdmin, care.RoleCaregiver, care.RoleSenior)
		},
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a().notifs.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"notifications": items,
				"total":         a().notifs.Cache().Meta().Total,
				"offset":        a().notifs.Offset(),
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a().notifs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(n)
		},
	}

	confirm := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Acknowledge a reminder notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a().notifs.Confirm(cmd.Context(), args[0])
		},
	}

	markRead := &cobra.Command{
		Use:   "mark-read <id>...",
		Short: "Mark notifications as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a().notifs.MarkRead(cmd.Context(), args)
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete notifications",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			return a().notifs.DeleteBulk(cmd.Context(), args)
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate notification counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a().notifs.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}

	settings := &cobra.Command{
		Use:   "settings",
		Short: "Per-channel delivery preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a().notifs.Settings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}

	var channel string
	var enabled bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Update one channel's preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if channel == "" {
				return errors.New("--channel is required")
			}
			req := care.UpdateNotificationSettingsRequest{
				Channel:                care.NotificationChannel(channel),
				IsEnabled:              enabled,
				PreferredTime:          stringFlag(cmd, "preferred-time"),
				Timezone:               stringFlag(cmd, "timezone"),
				QuietHoursStart:        stringFlag(cmd, "quiet-start"),
				QuietHoursEnd:          stringFlag(cmd, "quiet-end"),
				MaxNotificationsPerDay: intFlag(cmd, "max-per-day"),
			}
			st, err := a().notifs.UpdateSettings(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(st)
		},
	}
	set.Flags().StringVar(&channel, "channel", "", "channel (EMAIL, PUSH, SMS)")
	set.Flags().BoolVar(&enabled, "enabled", true, "enable or disable the channel")
	set.Flags().String("preferred-time", "", "preferred delivery time (HH:MM)")
	set.Flags().String("timezone", "", "IANA timezone")
	set.Flags().String("quiet-start", "", "quiet hours start (HH:MM)")
	set.Flags().String("quiet-end", "", "quiet hours end (HH:MM)")
	set.Flags().Int("max-per-day", 0, "daily notification cap")
	settings.AddCommand(set)

	var testReq care.TestNotificationRequest
	test := &cobra.Command{
		Use:   "test",
		Short: "Send a throwaway test notification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if testReq.Title == "" {
				testReq.Title = "Test notification"
			}
			if testReq.Message == "" {
				testReq.Message = "Hello from carectl"
			}
			return a().notifs.SendTest(cmd.Context(), testReq)
		},
	}
	test.Flags().StringVar(&testReq.Title, "title", "", "notification title")
	test.Flags().StringVar(&testReq.Message, "message", "", "notification body")
	test.Flags().StringSliceVar(&testReq.Channels, "channels", []string{"PUSH"}, "delivery channels")

	cmd.AddCommand(list, get, confirm, markRead, del, stats, settings, test)
	return cmd
}

func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}
