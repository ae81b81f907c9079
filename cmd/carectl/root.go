package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"carelink.org/internal/api"
	"carelink.org/internal/auth"
	"carelink.org/internal/care"
	"carelink.org/internal/config"
	"carelink.org/internal/obs"
	"carelink.org/internal/push"
	"carelink.org/internal/resources"
	"carelink.org/internal/session"
	"carelink.org/internal/storage"
)

// app bundles the fully wired client stack for command handlers.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	store  storage.Store
	client *api.Client
	sess   *session.Session

	fcm       *push.FCM
	registrar *push.Registrar

	meds   *resources.Medications
	scheds *resources.Schedules
	notifs *resources.Notifications
	users  *resources.Users
}

func newApp(ctx context.Context, cfgPath, logLevel string) (*app, error) {
	cfg, err := config.Load(ctx, cfgPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	log := obs.NewLogger(true, logLevel)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	var sess *session.Session
	client, err := api.New(cfg.APIBaseURL,
		api.WithHTTPClient(&http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: obs.InstrumentTransport(nil),
		}),
		api.WithTokenSource(func() string { return sess.TokenSource()() }),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	sess, err = session.New(client, store, session.WithLogger(log))
	if err != nil {
		return nil, err
	}
	sess.Rehydrate()

	fcm := push.NewFCM(push.FCMConfig{
		ProjectID: cfg.Messaging.ProjectID,
		AppID:     cfg.Messaging.AppID,
		APIKey:    cfg.Messaging.APIKey,
		SenderID:  cfg.Messaging.SenderID,
		VAPIDKey:  cfg.Messaging.VAPIDKey,
	}, store, nil)
	registrar := push.NewRegistrar(client, fcm, log)
	sess.AfterLogin(registrar.LoginHook())
	sess.AfterLogout(registrar.LogoutHook())

	return &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		client:    client,
		sess:      sess,
		fcm:       fcm,
		registrar: registrar,
		meds:      resources.NewMedications(client),
		scheds:    resources.NewSchedules(client),
		notifs:    resources.NewNotifications(client),
		users:     resources.NewUsers(client),
	}, nil
}

// requireRole refuses the command unless the signed-in user's role is in the
// allowed set.
func (a *app) requireRole(allowed ...care.Role) error {
	verdict, _ := auth.NewGate(allowed...).Decide(a.sess.Snapshot())
	switch verdict {
	case auth.Allow:
		return nil
	case auth.RedirectLogin:
		return fmt.Errorf("not signed in, run `carectl login` first")
	default:
		return fmt.Errorf("your role does not allow this command")
	}
}

// printJSON renders command output. Everything carectl prints is the same
// JSON the backend speaks.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath     string
		logLevel    string
		metricsAddr string
		a           *app
	)

	root := &cobra.Command{
		Use:           "carectl",
		Short:         "CareLink senior-care dashboard client",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			obs.Init()
			obs.InitBuildInfo(version, commit)
			var err error
			a, err = newApp(cmd.Context(), cfgPath, logLevel)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				go serveMetrics(a.log, metricsAddr)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default is the per-user location)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	appRef := func() *app { return a }
	root.AddCommand(
		newLoginCmd(appRef),
		newLogoutCmd(appRef),
		newWhoamiCmd(appRef),
		newRegisterCmd(appRef),
		newPasswordCmd(appRef),
		newRefreshCmd(appRef),
		newMedicationsCmd(appRef),
		newSchedulesCmd(appRef),
		newNotificationsCmd(appRef),
		newUsersCmd(appRef),
		newPushCmd(appRef),
	)
	return root
}

func serveMetrics(log zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", obs.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn().Err(err).Msg("metrics server stopped")
	}
}
