package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

var statusCmd = &cobra.Command{
	Use:   "status [profile]",
	Short: "Show authentication status for a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// profileArg resolves an optional positional profile, defaulting to the
// active one.
func profileArg(args []string) (string, error) {
	if len(args) == 0 {
		return profiles.Active(), nil
	}
	code := args[0]
	if !profiles.IsValid(code) {
		return "", fmt.Errorf("unknown profile %q (configured: %v)", code, profiles.Codes())
	}
	return code, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	code, err := profileArg(args)
	if err != nil {
		return err
	}
	status := engine.Status(code)

	label := code
	if p, ok := profiles.Get(code); ok && p.Label != "" {
		label = fmt.Sprintf("%s (%s)", code, p.Label)
	}
	cmd.Println(headerStyle.Render("Profile " + label))

	if status.Configured {
		cmd.Printf("  credentials: %s (%s)\n", okStyle.Render("configured"), status.AuthMode)
	} else {
		cmd.Printf("  credentials: %s\n", errStyle.Render("missing"))
	}
	switch {
	case status.Connected:
		cmd.Printf("  connection:  %s\n", okStyle.Render("connected"))
	case status.HasTokens:
		cmd.Printf("  connection:  %s\n", warnStyle.Render("token expired"))
	default:
		cmd.Printf("  connection:  %s\n", faintStyle.Render("not connected"))
	}
	if status.UserEmail != "" {
		name := status.UserEmail
		if status.UserName != "" {
			name = fmt.Sprintf("%s <%s>", status.UserName, status.UserEmail)
		}
		cmd.Printf("  acting as:   %s\n", name)
	}
	if status.TenantID != "" {
		cmd.Printf("  tenant:      %s\n", faintStyle.Render(status.TenantID))
	}
	return nil
}
