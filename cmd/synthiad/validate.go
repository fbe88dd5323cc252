package main

import (
	"github.com/spf13/cobra"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/x/genesis/keeper"
	"github.com/lexamoris/synthia/x/genesis/types"
)

func newValidateCmd() *cobra.Command {
	var (
		requiresConsent   bool
		consentGranted    bool
		transparencyIndex float64
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check one operation against an in-memory genesis kernel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policies := types.DefaultPolicyRegistry()
			seq, err := keeper.NewSequencer(constants.Default(), policies, nil)
			if err != nil {
				return err
			}
			if _, err := seq.Initialize(cmd.Context()); err != nil {
				return err
			}
			validator, err := keeper.NewOperationValidator(policies, seq, nil)
			if err != nil {
				return err
			}
			accepted, err := validator.ValidateOperation(types.NewOperation(requiresConsent, consentGranted, transparencyIndex))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]bool{"accepted": accepted})
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&requiresConsent, "requires-consent", false, "the operation requires consent")
	flags.BoolVar(&consentGranted, "consent-granted", false, "consent was granted")
	flags.Float64Var(&transparencyIndex, "transparency-index", 0, "transparency index of the operation")
	if err := cmd.MarkFlagRequired("transparency-index"); err != nil {
		panic(err)
	}
	return cmd
}
