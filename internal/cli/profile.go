package cli

import (
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the active profile",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured profiles",
	RunE:  runProfileList,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <code>",
	Short: "Switch the active profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSet,
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, _ []string) error {
	active := profiles.Active()
	for _, code := range profiles.Codes() {
		marker := " "
		if code == active {
			marker = okStyle.Render("*")
		}
		p, _ := profiles.Get(code)
		if p.Label != "" {
			cmd.Printf("%s %s  %s\n", marker, code, faintStyle.Render(p.Label))
		} else {
			cmd.Printf("%s %s\n", marker, code)
		}
	}
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	if err := profiles.SetActive(args[0]); err != nil {
		return err
	}
	cmd.Printf("active profile is now %s\n", args[0])
	return nil
}
