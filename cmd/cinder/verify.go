package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cinder/internal/ir"
)

func init() {
	verifyCmd.Flags().Bool("ownership", false, "also check the linear ownership discipline")
}

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] <module.cir>",
	Short: "Check the structural invariants of a serialized IR module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mod, err := ir.ReadModuleFile(args[0])
		if err != nil {
			return err
		}
		if err := ir.Verify(mod); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		ownership, err := cmd.Flags().GetBool("ownership")
		if err != nil {
			return err
		}
		if ownership {
			var errs []error
			for _, f := range mod.Funcs() {
				if !f.HasOwnership() {
					continue
				}
				if err := ir.VerifyOwnership(f); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
				}
			}
			if err := errors.Join(errs...); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
		}

		quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d functions)\n", args[0], len(mod.Funcs()))
		}
		return nil
	},
}
