package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newPushCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push notification registration",
	}

	enable := &cobra.Command{
		Use:   "enable",
		Short: "Grant notification permission and register this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := a().sess.Snapshot()
			if snap.User == nil {
				return errors.New("not signed in, run `carectl login` first")
			}
			if !a().fcm.Supported() {
				return errors.New("push messaging is not configured; set the messaging credentials in the config file")
			}
			if _, err := a().fcm.RequestPermission(); err != nil {
				return err
			}
			if err := a().registrar.Register(cmd.Context(), *snap.User); err != nil {
				return err
			}
			a().log.Info().Msg("push notifications enabled")
			return nil
		},
	}

	disable := &cobra.Command{
		Use:   "disable",
		Short: "Unregister this device and refuse future prompts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Deregistration is best effort; the local refusal always sticks.
			if err := a().registrar.Unregister(cmd.Context()); err != nil {
				a().log.Warn().Err(err).Msg("token deregistration failed")
			}
			if err := a().fcm.Deny(); err != nil {
				return err
			}
			a().log.Info().Msg("push notifications disabled")
			return nil
		},
	}

	tokens := &cobra.Command{
		Use:   "tokens",
		Short: "List the push tokens registered for your account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a().registrar.Tokens(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(items)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the local push permission state",
		RunE: func(_ *cobra.Command, _ []string) error {
			perm, err := a().fcm.Permission()
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"supported":  a().fcm.Supported(),
				"permission": string(perm),
			})
		},
	}

	cmd.AddCommand(enable, disable, tokens, status)
	return cmd
}
