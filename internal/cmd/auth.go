package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/oauth"
	"github.com/felixgeelhaar/vibecoder/internal/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage GitHub authentication",
	Long: `Manage the GitHub credentials vibecoder uses to push changes and
open pull requests.

Login completes a browser-based GitHub OAuth flow. After authorizing in the
browser, paste the redirect URL the browser was sent to, or pass the
authorization code directly.

Subcommands:
  login    Complete the OAuth flow and store credentials
  logout   Remove stored credentials
  status   Show who is currently authenticated

Examples:
  vibecoder auth login --redirect-url "vibecoder://oauth-success?token=...&user=..."
  vibecoder auth login --code abc123
  vibecoder auth status
  vibecoder auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var (
	authRedirectURL string
	authCode        string
	authRedirectURI string
)

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Complete the OAuth flow and store credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authRedirectURL == "" && authCode == "" {
			return errors.New(errors.KindValidation, errors.ErrCodeOAuthMalformed,
				"pass --redirect-url or --code").
				WithSuggestion("Authorize in the browser, then paste the URL it redirected to")
		}

		creds, err := credentialManager()
		if err != nil {
			return err
		}
		handler := oauth.NewHandler(creds, newAPIClient())

		var outcome oauth.Outcome
		if authRedirectURL != "" {
			outcome = handler.HandleRedirect(authRedirectURL)
		} else {
			redirectURI := authRedirectURI
			if redirectURI == "" {
				redirectURI = cfg.RedirectURI
			}
			outcome = handler.ExchangeCode(cmd.Context(), authCode, redirectURI)
		}

		if outcome.State != oauth.StateAuthenticated {
			return outcome.Err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderUser(outcome.User))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := credentialManager()
		if err != nil {
			return err
		}

		stored, ok, err := creds.Get()
		if err == nil && ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Logging out %s\n", stored.User.Login)
		}

		if err := creds.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is currently authenticated",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := credentialManager()
		if err != nil {
			return err
		}

		stored, ok, err := creds.Get()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in. Run 'vibecoder auth login'.")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderUser(stored.User))
		return nil
	},
}

func init() {
	authLoginCmd.Flags().StringVar(&authRedirectURL, "redirect-url", "", "full OAuth redirect URL from the browser")
	authLoginCmd.Flags().StringVar(&authCode, "code", "", "authorization code to exchange directly")
	authLoginCmd.Flags().StringVar(&authRedirectURI, "redirect-uri", "", "redirect URI used during authorization")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
