package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-lite/internal/domains/user/model"
	"library-lite/internal/shared"
	"library-lite/pkg/container"
)

var (
	staffEmail string
	staffName  string
	staffRole  string
)

var createStaffCmd = &cobra.Command{
	Use:   "create-staff",
	Short: "Create or promote a librarian/admin account",
	Long: `Create a librarian or admin. Public signup can only create members, so staff
accounts are provisioned here. Re-running for an existing email updates the role
and password.`,
	Example: `  libctl create-staff --email ada@library.test --name "Ada Lovelace" --role admin`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		c, err := container.NewContainer()
		if err != nil {
			return err
		}
		defer c.Cleanup()

		user, err := c.UserService.CreateStaff(cmd.Context(), &model.CreateStaffRequest{
			Email:    staffEmail,
			Password: password,
			FullName: staffName,
			Role:     staffRole,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Staff account ready: %s (%s, id %s)\n", user.Email, user.Role, user.ID)
		return nil
	},
}

func init() {
	createStaffCmd.Flags().StringVar(&staffEmail, "email", "", "staff email")
	createStaffCmd.Flags().StringVar(&staffName, "name", "", "full name")
	createStaffCmd.Flags().StringVar(&staffRole, "role", shared.RoleLibrarian, "librarian | admin")
	_ = createStaffCmd.MarkFlagRequired("email")
	_ = createStaffCmd.MarkFlagRequired("name")
}

// readPassword đọc password không echo khi stdin là terminal, ngược lại đọc một dòng (pipe/CI)
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password provided on stdin")
	}
	return strings.TrimSpace(line), nil
}
