package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/x/genesis/types"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newConstantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "constants [name]",
		Short: "Print the genesis constants, or a single named constant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := constants.Default()
			if len(args) == 0 {
				return printJSON(cmd.OutOrStdout(), table)
			}
			name, ok := constants.FromString(args[0])
			if !ok {
				return fmt.Errorf("unknown constant %q", args[0])
			}
			value, _ := table.Get(name)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "Print the sovereignty principles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), types.DefaultPolicyRegistry())
		},
	}
}
