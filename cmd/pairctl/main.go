package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vendpair/vendpair-go/internal/client/api"
	"github.com/vendpair/vendpair-go/internal/client/pairing"
	"github.com/vendpair/vendpair-go/internal/client/session"
	"github.com/vendpair/vendpair-go/internal/client/views"
	"github.com/vendpair/vendpair-go/internal/clock"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/tui"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type appContext struct {
	client *api.Client
	sess   *session.Manager
	clk    *clock.Clock
}

func newRootCommand() *cobra.Command {
	var serverURL string
	var timezone string

	app := &appContext{}

	cmd := &cobra.Command{
		Use:           "pairctl",
		Short:         "Register and browse daily vending machine pairs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			clk, err := clock.New(timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", timezone, err)
			}
			store, err := session.NewFileStore()
			if err != nil {
				return err
			}
			app.client = api.New(serverURL)
			app.sess = session.NewManager(app.client, store)
			app.clk = clk
			return nil
		},
	}

	defaultServer := os.Getenv("PAIRCTL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "Base URL of the pairing server")
	cmd.PersistentFlags().StringVar(&timezone, "timezone", os.Getenv("PAIRCTL_TIMEZONE"), "IANA timezone used to decide what \"today\" means (default UTC)")

	cmd.AddCommand(newLoginCommand(app))
	cmd.AddCommand(newRegisterCommand(app))
	cmd.AddCommand(newLogoutCommand(app))
	cmd.AddCommand(newWhoamiCommand(app))
	cmd.AddCommand(newPartnersCommand(app))
	cmd.AddCommand(newPairCommand(app))
	cmd.AddCommand(newHistoryCommand(app))
	cmd.AddCommand(newUnpairedCommand(app))
	cmd.AddCommand(newDashboardCommand(app))
	return cmd
}

// restore resumes the stored session and fails the command when nobody is
// signed in.
func restore(ctx context.Context, app *appContext) error {
	if err := app.sess.Restore(ctx); err != nil {
		return err
	}
	if !app.sess.Authenticated() {
		return fmt.Errorf("not signed in, run `pairctl login` first")
	}
	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

func newLoginCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			if err := app.sess.Login(cmd.Context(), args[0], password); err != nil {
				if apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials) {
					return fmt.Errorf("invalid email or password")
				}
				return err
			}
			fmt.Printf("Signed in as %s\n", app.sess.CurrentUser().Name)
			return nil
		},
	}
}

func newRegisterCommand(app *appContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			if err := app.sess.Register(cmd.Context(), name, args[0], password); err != nil {
				return err
			}
			fmt.Printf("Account created, signed in as %s\n", app.sess.CurrentUser().Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the new account")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.sess.Logout(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd.Context(), app); err != nil {
				return err
			}
			user := app.sess.CurrentUser()
			fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
}

func newPartnersCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "partners",
		Short: "List everyone you could pair with today",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd.Context(), app); err != nil {
				return err
			}

			flow := pairing.NewFlow(app.client, app.clk)
			partners, err := flow.AvailablePartners(cmd.Context(), app.sess.CurrentUser().ID)
			if err != nil {
				return err
			}
			if len(partners) == 0 {
				fmt.Println("Nobody else is on the roster.")
				return nil
			}
			for _, p := range partners {
				fmt.Printf("%d  %s\n", p.ID, p.Name)
			}
			return nil
		},
	}
}

func newPairCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pair <partner-id>",
		Short: "Register today's pair with the given partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partnerID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("partner id must be a number: %q", args[0])
			}
			if err := restore(cmd.Context(), app); err != nil {
				return err
			}

			flow := pairing.NewFlow(app.client, app.clk)
			if _, err := flow.RefreshGate(cmd.Context()); err != nil {
				return err
			}
			if pair := flow.TodayPair(); pair != nil {
				return fmt.Errorf("already paired today with %s", pair.PartnerName)
			}

			flow.Select(partnerID)
			pair, err := flow.Submit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Paired with %s for %s\n", pair.PartnerName, pair.PairDate)
			return nil
		},
	}
}

func newHistoryCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show this week's pairs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd.Context(), app); err != nil {
				return err
			}
			entries, err := app.client.WeeklyHistory(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No pairs recorded this week.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %s\n", e.PairDate, e.PartnerName)
			}
			return nil
		},
	}
}

func newUnpairedCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unpaired",
		Short: "List users with no pair registered today",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd.Context(), app); err != nil {
				return err
			}
			users, err := app.client.ListUnpaired(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Println("Everyone has a pair today.")
				return nil
			}
			for _, u := range users {
				fmt.Printf("%d  %s\n", u.ID, u.Name)
			}
			return nil
		},
	}
}

func newDashboardCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive pairing dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restore(cmd.Context(), app); err != nil {
				return err
			}

			flow := pairing.NewFlow(app.client, app.clk)
			history := views.NewHistoryView(app.client, app.sess)
			unpaired := views.NewUnpairedView(app.client, app.sess)

			program := tea.NewProgram(tui.NewApp(app.sess, flow, history, unpaired), tea.WithAltScreen())
			_, err := program.Run()
			return err
		},
	}
}
