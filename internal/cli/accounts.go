package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List connected accounts",
	RunE: func(_ *cobra.Command, _ []string) error {
		accounts, err := tokenStore.Accounts()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts connected. Run 'outlook-bridge login' to sign in.")
			return nil
		}

		active, err := tokenStore.ActiveAccount()
		if err != nil {
			return err
		}
		for _, id := range accounts {
			marker := " "
			if id == active {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, id)
		}
		return nil
	},
}

var accountsUseCmd = &cobra.Command{
	Use:   "use <account>",
	Short: "Switch the active account",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := tokenStore.SetActiveAccount(args[0]); err != nil {
			return err
		}
		fmt.Printf("Active account is now %s.\n", args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete all stored tokens",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := tokenStore.ClearTokens(); err != nil {
			return err
		}
		fmt.Println("All stored tokens removed.")
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsUseCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(logoutCmd)
}
