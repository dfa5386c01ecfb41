package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/simplemotion/m365-mcp/internal/auth"
)

var connectTimeout time.Duration

var connectCmd = &cobra.Command{
	Use:   "connect [profile]",
	Short: "Sign in interactively with a device code",
	Long: `Start the device-code flow: a code and URL are printed, and the command
waits until sign-in completes in the browser. This is the only flow that
yields a refresh token, letting the profile act as the signed-in user.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConnect,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect [profile]",
	Short: "Clear a profile's cached tokens",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDisconnect,
}

func init() {
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 0, "overall sign-in timeout (default 5m)")
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	code, err := profileArg(args)
	if err != nil {
		return err
	}

	record, err := engine.Connect(cmd.Context(), code, auth.ConnectOptions{
		Timeout: connectTimeout,
		OnPrompt: func(p *auth.DevicePrompt) {
			cmd.Println()
			if p.Message != "" {
				cmd.Println(p.Message)
			} else {
				cmd.Printf("Visit %s and enter the code %s\n", p.VerificationURI, p.UserCode)
			}
			cmd.Println(faintStyle.Render("Waiting for sign-in to complete..."))
		},
	})
	if err != nil {
		return err
	}

	who := record.UserEmail
	if record.UserName != "" {
		who = record.UserName + " <" + record.UserEmail + ">"
	}
	cmd.Printf("%s signed in as %s\n", okStyle.Render("✓"), who)
	return nil
}

func runDisconnect(cmd *cobra.Command, args []string) error {
	code, err := profileArg(args)
	if err != nil {
		return err
	}
	if err := engine.Disconnect(code); err != nil {
		return err
	}
	cmd.Printf("cleared tokens for profile %s\n", code)
	return nil
}
