package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brizzai/popup-login/internal/auth"
	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/brizzai/popup-login/internal/auth/providers"
	"github.com/brizzai/popup-login/internal/config"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/requester"
	"github.com/brizzai/popup-login/internal/server"
	"github.com/brizzai/popup-login/internal/tokenstore"
	"github.com/brizzai/popup-login/internal/tui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "popup-login",
	Short: "Sign in to Spotify from the terminal",
	Long: `popup-login signs you in to Spotify with the implicit grant flow.
It opens the authorization page in your browser, waits for the redirect back to
a local callback page and keeps the access token for later commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *auth.Service) error {
			user, err := svc.GetLoginStatus(ctx)
			if err != nil {
				return err
			}
			return printUser(user)
		})
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in through the browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		return withService(cmd, func(ctx context.Context, svc *auth.Service) error {
			if !plain {
				_, err := tui.RunSignIn(ctx, svc.SignIn)
				return err
			}
			pterm.Info.Println("Complete the sign in in your browser, or press Ctrl+C to abort")
			user, err := svc.SignIn(ctx)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Signed in as %s", displayName(user))
			return nil
		})
	},
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Forget the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *auth.Service) error {
			if err := svc.SignOut(ctx); err != nil {
				return err
			}
			pterm.Success.Println("Signed out of Spotify")
			return nil
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the login tools over MCP",
	RunE: func(cmd *cobra.Command, args []string) error {
		var srv *server.Server
		app, cfg, err := newApp(cmd, fx.Populate(&srv))
		if err != nil {
			return err
		}
		return run(cmd.Context(), app, func(ctx context.Context) error {
			if cfg.Server.Mode != config.ServerModeSTDIO {
				pterm.Info.Printfln("Serving MCP over %s on %s:%d", cfg.Server.Mode, cfg.Server.Host, cfg.Server.Port)
			}
			return srv.Start(ctx)
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, providers.ErrNotLoggedIn) {
			pterm.Warning.Println(err)
		} else {
			pterm.Error.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	signInCmd.Flags().Bool("plain", false, "Print plain output instead of the interactive view")
	rootCmd.AddCommand(statusCmd, signInCmd, signOutCmd, serveCmd)
}

// newApp loads configuration, initializes the logger and builds the
// dependency graph
func newApp(cmd *cobra.Command, opts ...fx.Option) (*fx.App, *config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := fx.New(append([]fx.Option{
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.GetLogger()}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		requester.Module,
		tokenstore.Module,
		providers.Module,
		auth.Module,
		server.Module,
	}, opts...)...)
	if err := app.Err(); err != nil {
		return nil, nil, err
	}
	return app, cfg, nil
}

// run starts app, calls fn with a context cancelled on SIGINT or SIGTERM and
// stops app afterwards
func run(parent context.Context, app *fx.App, fn func(ctx context.Context) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Sync() }()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			pterm.Warning.Printfln("Shutdown: %v", err)
		}
	}()

	return fn(ctx)
}

func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *auth.Service) error) error {
	var svc *auth.Service
	app, _, err := newApp(cmd, fx.Populate(&svc))
	if err != nil {
		return err
	}
	return run(cmd.Context(), app, func(ctx context.Context) error {
		if err := svc.Initialize(ctx); err != nil {
			return err
		}
		return fn(ctx, svc)
	})
}

func displayName(user *models.SocialUser) string {
	if user.Name != "" {
		return fmt.Sprintf("%s (%s)", user.Name, user.ID)
	}
	return user.ID
}

func printUser(user *models.SocialUser) error {
	return pterm.DefaultTable.WithData(pterm.TableData{
		{"Provider", user.Provider},
		{"ID", user.ID},
		{"Name", user.Name},
		{"Email", user.Email},
		{"Photo", user.PhotoURL},
	}).Render()
}
