package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rimworks/cmd/rimworks/ui"
	"rimworks/internal/auth"
	"rimworks/internal/filter"
	"rimworks/internal/types"
)

// =============================================================================
// OPERATOR COMMANDS
// =============================================================================

var (
	opName     string
	opUsername string
	opPassword string
	opEPF      string
	opRole     string

	opListRole   string
	opListSearch string
	opListSort   string
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operator accounts",
}

var operatorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an operator account",
	Long: `Creates an operator account in operators/operators.json.

The password is stored as a bcrypt hash.

Example:
  rimworks operator add --name "Jane Perera" --username jane --password s3cret --epf 1042 --role Supervisor`,
	RunE: runOperatorAdd,
}

var operatorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List operator accounts",
	RunE:  runOperatorList,
}

func init() {
	operatorAddCmd.Flags().StringVar(&opName, "name", "", "Full name")
	operatorAddCmd.Flags().StringVar(&opUsername, "username", "", "Login name")
	operatorAddCmd.Flags().StringVar(&opPassword, "password", "", "Login password")
	operatorAddCmd.Flags().StringVar(&opEPF, "epf", "", "EPF number")
	operatorAddCmd.Flags().StringVar(&opRole, "role", string(types.RoleOperator), "Role ("+roleNames()+")")

	operatorListCmd.Flags().StringVar(&opListRole, "role", ui.AllRoles, "Only show this role")
	operatorListCmd.Flags().StringVar(&opListSearch, "search", "", "Username substring")
	operatorListCmd.Flags().StringVar(&opListSort, "sort", "username", "Sort by username or name")

	operatorCmd.AddCommand(operatorAddCmd)
	operatorCmd.AddCommand(operatorListCmd)
}

func runOperatorAdd(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	role, ok := types.ParseRole(opRole)
	if !ok {
		role = types.Role(opRole)
	}
	op := types.Operator{
		Name:      strings.TrimSpace(opName),
		Username:  strings.TrimSpace(opUsername),
		Password:  opPassword,
		EPFNumber: strings.TrimSpace(opEPF),
		Role:      role,
	}
	if err := op.Validate(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(op.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	op.Password = hash

	if err := shop.Operators().Add(ctx, op); err != nil {
		return err
	}
	logger.Debug("operator created from cli", zap.String("username", op.Username))
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Operator %s (%s) created\n", op.Username, op.Role)
	return nil
}

func runOperatorList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	out := cmd.OutOrStdout()

	ops, warnings, err := shop.Operators().List(ctx)
	if err != nil {
		return err
	}
	printWarnings(out, warnings)

	query, err := ui.OperatorQuery(opListRole, opListSearch, opListSort)
	if err != nil {
		return err
	}
	shown := filter.Apply(ops, query)
	if len(shown) == 0 {
		fmt.Fprintln(out, "No operators found.")
		return nil
	}

	table := ui.NewSimpleTable("Operators", []string{"Username", "Name", "EPF", "Role"})
	for _, op := range shown {
		table.AddRow(op.Username, op.Name, op.EPFNumber, string(op.Role))
	}
	fmt.Fprint(out, table.View(cliStyles()))
	fmt.Fprintf(out, "%d of %d operators\n", len(shown), len(ops))
	return nil
}

func roleNames() string {
	names := make([]string, len(types.Roles))
	for i, r := range types.Roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// printWarnings reports records that were skipped while loading.
func printWarnings(w io.Writer, warnings []types.LoadWarning) {
	for _, lw := range warnings {
		fmt.Fprintf(w, "⚠️  skipped %s\n", lw.String())
	}
}

// cliStyles returns the table styles for command output, honoring ui.theme.
func cliStyles() ui.Styles {
	if cfg == nil {
		return ui.DefaultStyles()
	}
	return ui.StylesFor(cfg.UI.Theme)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
