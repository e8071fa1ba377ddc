package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinder/internal/ir"
)

func init() {
	dumpCmd.Flags().String("func", "", "print only this function")
}

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <module.cir>",
	Short: "Print a serialized IR module as text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mod, err := ir.ReadModuleFile(args[0])
		if err != nil {
			return err
		}

		name, err := cmd.Flags().GetString("func")
		if err != nil {
			return err
		}
		if name != "" {
			f := mod.FuncByName(name)
			if f == nil {
				return fmt.Errorf("no function named %q in %s", name, args[0])
			}
			return ir.FprintFunc(cmd.OutOrStdout(), f)
		}
		return ir.Fprint(cmd.OutOrStdout(), mod)
	},
}
