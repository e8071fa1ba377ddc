package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinder/internal/ir"
	"cinder/internal/opt"
	"cinder/internal/project"
	"cinder/internal/ui"
)

func init() {
	optCmd.Flags().StringP("output", "o", "", "write the optimized module here (default: in place)")
	optCmd.Flags().Int("max-arg-combinations", 0, "cap on phi pairs examined per block (0 = default)")
	optCmd.Flags().Int("max-equality-checks", 0, "cap on value pairs per equality query (0 = default)")
	optCmd.Flags().Bool("verify", false, "verify the IR after each pass")
	optCmd.Flags().Int("jobs", 0, "functions optimized in parallel (0 = all CPUs)")
}

var optCmd = &cobra.Command{
	Use:   "opt [flags] <module.cir>",
	Short: "Optimize a serialized IR module",
	Long:  "Optimize a serialized IR module: eliminate redundant phi arguments and expand single-field struct phis.",
	Args:  cobra.ExactArgs(1),
	RunE:  optExecution,
}

func optExecution(cmd *cobra.Command, args []string) error {
	cfg, err := resolveOptConfig(cmd)
	if err != nil {
		return err
	}

	input := args[0]
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output == "" {
		output = input
	}

	mod, err := ir.ReadModuleFile(input)
	if err != nil {
		return err
	}

	passes := opt.DefaultPasses(cfg)
	stats, err := opt.NewPipeline(cfg, passes...).Run(mod)
	if err != nil {
		return err
	}

	if err := ir.WriteModuleFile(output, mod); err != nil {
		return err
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if !quiet {
		passOrder := make([]string, 0, len(passes))
		for _, p := range passes {
			passOrder = append(passOrder, p.Name())
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderStats(stats, passOrder, colorEnabled(cmd)))
	}

	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	if timings {
		for _, p := range stats.Timings.Phases {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %.1f ms\n", p.Name, p.DurationMS)
		}
	}
	return nil
}

// resolveOptConfig layers the defaults, the [opt] section of a discovered
// cinder.toml, and explicit flags, in that order.
func resolveOptConfig(cmd *cobra.Command) (opt.Config, error) {
	cfg := opt.DefaultConfig()

	if manifestPath, ok, err := project.FindCinderToml("."); err != nil {
		return opt.Config{}, err
	} else if ok {
		manifest, err := project.LoadManifest(manifestPath)
		if err != nil {
			return opt.Config{}, err
		}
		cfg = manifest.OptConfig()
	}

	if cmd.Flags().Changed("max-arg-combinations") {
		n, err := cmd.Flags().GetInt("max-arg-combinations")
		if err != nil {
			return opt.Config{}, err
		}
		if n <= 0 {
			return opt.Config{}, fmt.Errorf("--max-arg-combinations must be positive")
		}
		cfg.MaxArgCombinations = n
	}
	if cmd.Flags().Changed("max-equality-checks") {
		n, err := cmd.Flags().GetInt("max-equality-checks")
		if err != nil {
			return opt.Config{}, err
		}
		if n <= 0 {
			return opt.Config{}, fmt.Errorf("--max-equality-checks must be positive")
		}
		cfg.MaxEqualityChecks = n
	}
	if cmd.Flags().Changed("verify") {
		v, err := cmd.Flags().GetBool("verify")
		if err != nil {
			return opt.Config{}, err
		}
		cfg.Verify = v
	}
	if cmd.Flags().Changed("jobs") {
		n, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return opt.Config{}, err
		}
		if n < 0 {
			return opt.Config{}, fmt.Errorf("--jobs must not be negative")
		}
		cfg.Jobs = n
	}
	return cfg, nil
}
