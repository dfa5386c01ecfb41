package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simplemotion/m365-mcp/internal/auth"
)

var credentialFields = []string{
	auth.FieldClientID,
	auth.FieldClientSecret,
	auth.FieldTenantID,
	auth.FieldUserID,
	auth.FieldCertThumbprint,
	auth.FieldCertKey,
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage a profile's stored credentials",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <profile> <field>",
	Short: "Store one credential field in the secret store",
	Long: `Store a credential field for a profile. The value is read from stdin
without echo.

Fields: ` + strings.Join(credentialFields, ", "),
	Args: cobra.ExactArgs(2),
	RunE: runCredentialsSet,
}

var credentialsListCmd = &cobra.Command{
	Use:   "list <profile>",
	Short: "Show which credential fields are present",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsList,
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <profile> <field>",
	Short: "Remove one credential field from the secret store",
	Args:  cobra.ExactArgs(2),
	RunE:  runCredentialsDelete,
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsCmd.AddCommand(credentialsDeleteCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func validCredentialField(field string) error {
	for _, known := range credentialFields {
		if field == known {
			return nil
		}
	}
	return fmt.Errorf("unknown field %q (fields: %s)", field, strings.Join(credentialFields, ", "))
}

func validProfileArg(code string) error {
	if !profiles.IsValid(code) {
		return fmt.Errorf("unknown profile %q (configured: %v)", code, profiles.Codes())
	}
	return nil
}

// readSecret reads a value without echo when stdin is a terminal, and as a
// plain line otherwise so the command stays scriptable.
func readSecret(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		cmd.Print("value: ")
		raw, err := term.ReadPassword(fd)
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("read value: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read value: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	code, field := args[0], args[1]
	if err := validProfileArg(code); err != nil {
		return err
	}
	if err := validCredentialField(field); err != nil {
		return err
	}

	value, err := readSecret(cmd)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("empty value")
	}

	if err := secretStore.Set(auth.CanonicalKey(code, field), value); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	cmd.Printf("stored %s for profile %s\n", field, code)
	return nil
}

func runCredentialsList(cmd *cobra.Command, args []string) error {
	code := args[0]
	if err := validProfileArg(code); err != nil {
		return err
	}

	for _, field := range credentialFields {
		_, ok := secretStore.Get(auth.CanonicalKey(code, field))
		if !ok {
			// Reads fall back to the names an earlier release wrote.
			if legacy := auth.LegacyKey(code, field); legacy != "" {
				_, ok = secretStore.Get(legacy)
			}
		}
		state := faintStyle.Render("not set")
		if ok {
			state = okStyle.Render("set")
		}
		cmd.Printf("  %-16s %s\n", field, state)
	}
	return nil
}

func runCredentialsDelete(cmd *cobra.Command, args []string) error {
	code, field := args[0], args[1]
	if err := validProfileArg(code); err != nil {
		return err
	}
	if err := validCredentialField(field); err != nil {
		return err
	}

	if err := secretStore.Delete(auth.CanonicalKey(code, field)); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	cmd.Printf("deleted %s for profile %s\n", field, code)
	return nil
}
