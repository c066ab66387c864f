package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/outlook-bridge/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Connect an Outlook account via the browser OAuth flow",
	RunE: func(_ *cobra.Command, _ []string) error {
		if !cfg.HasClientCredentials() {
			return fmt.Errorf("no OAuth client configured: set OUTLOOK_CLIENT_ID (and usually OUTLOOK_CLIENT_SECRET)")
		}

		state := auth.NewState()
		results, cleanup, err := auth.StartCallbackServer(tokenStore, cfg.RedirectURI, state, log)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println("Open this URL in your browser to sign in:")
		fmt.Println()
		fmt.Println(auth.BuildAuthURL(cfg, state))
		fmt.Println()
		fmt.Printf("Waiting for the callback on %s ...\n", cfg.RedirectURI)

		res := <-results
		if res.Err != nil {
			return res.Err
		}
		fmt.Printf("Signed in as %s.\n", res.AccountID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
