package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/arya-analytics/aegis/pkg/authz"
	authzfiber "github.com/arya-analytics/aegis/pkg/authz/fiber"
	"github.com/arya-analytics/aegis/pkg/graph"
	"github.com/arya-analytics/aegis/pkg/interop"
	"github.com/arya-analytics/aegis/pkg/pod"
	"github.com/arya-analytics/aegis/pkg/rdf"
	"github.com/arya-analytics/aegis/pkg/registry"
	"github.com/arya-analytics/aegis/pkg/session"
	"github.com/arya-analytics/aegis/pkg/wac"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// startCmd runs the authorization agent.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the authorization agent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := configureLogging()
		if err != nil {
			return err
		}

		sess := session.New()
		sess.Activate(viper.GetString("webid"), viper.GetString("access-token"))

		client := pod.New(pod.Config{Token: sess, Logger: logger.Named("pod")})

		store := graph.OpenWebStore(graph.WebStoreConfig{
			Pod:    client,
			Parser: rdf.NTriples{},
			Logger: logger.Named("graph"),
		})
		sess.OnStateChange(func(active bool) {
			if !active {
				store.Clear()
			}
		})

		entities := interop.OpenService(interop.Config{Store: store, Session: sess})

		containers, err := resolveContainers(cmd.Context(), store, sess)
		if err != nil {
			return err
		}
		registry.Provision(cmd.Context(), client, containers, logger.Named("registry"))

		svc := authz.OpenService(authz.Config{
			Entities: entities,
			Enforcer: wac.New(wac.Config{
				Pod:      client,
				Identity: sess,
				Logger:   logger.Named("wac"),
			}),
			Recorder:   registry.New(registry.Config{Pod: client, Logger: logger.Named("registry")}),
			Containers: containers,
			Logger:     logger.Named("authz"),
		})

		app := fiber.New()
		(&authzfiber.Service{
			Authz:      svc,
			Store:      store,
			Containers: containers,
			Token: &session.TokenService{
				Secret:     []byte(viper.GetString("token-secret")),
				Expiration: viper.GetDuration("token-expiration"),
			},
		}).BindTo(app)

		sigC := make(chan os.Signal, 1)
		signal.Notify(sigC, os.Interrupt)
		errC := make(chan error, 1)
		go func() { errC <- app.Listen(viper.GetString("listen-address")) }()

		select {
		case err = <-errC:
			return err
		case <-sigC:
			logger.Info("shutting down")
			sess.Deactivate()
			return app.Shutdown()
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringP(
		"listen-address",
		"l",
		"127.0.0.1:9090",
		"Address the agent's HTTP service listens on.",
	)
	startCmd.Flags().String(
		"webid",
		"",
		"WebID of the identity the agent acts as.",
	)
	startCmd.Flags().String(
		"access-token",
		"",
		"Bearer token presented to pod servers.",
	)
	startCmd.Flags().String(
		"token-secret",
		"",
		"Secret validating tokens presented to the agent's own service.",
	)
	startCmd.Flags().Duration(
		"token-expiration",
		24*time.Hour,
		"Lifetime of tokens issued by the agent.",
	)
	startCmd.Flags().String(
		"storage",
		"",
		"Storage root override. Discovered from the WebID profile when unset.",
	)
	startCmd.Flags().String(
		"inbox",
		"",
		"Inbox override. Discovered from the WebID profile when unset.",
	)
	startCmd.Flags().Bool(
		"debug",
		false,
		"Enable development logging.",
	)

	if err := viper.BindPFlags(startCmd.Flags()); err != nil {
		panic(err)
	}
}

func configureLogging() (*zap.Logger, error) {
	if viper.GetBool("debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// resolveContainers prefers the explicitly configured layout and falls back
// to discovery from the WebID profile.
func resolveContainers(
	ctx context.Context,
	store graph.Store,
	sess *session.Session,
) (registry.Containers, error) {
	if storage := viper.GetString("storage"); storage != "" {
		return registry.Layout(storage, viper.GetString("inbox"))
	}
	webID, _ := sess.WebID()
	return registry.Discover(ctx, store, webID)
}
