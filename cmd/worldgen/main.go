package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "worldgen",
		Short: "Procedural world generator producing engine-importable scene documents",
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(promptCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// genFlags are shared by generate and prompt.
type genFlags struct {
	size          int
	seed          int64
	noise         string
	noTerrain     bool
	noStructures  bool
	noObjects     bool
	maxObjects    int
	out           string
	preview       string
	seedRequested bool
}

func (f *genFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.size, "size", 512, "world size in studs")
	fl.Int64Var(&f.seed, "seed", 0, "PRNG seed (random when unset)")
	fl.StringVar(&f.noise, "noise", "uniform", "terrain noise: uniform, perlin or simplex")
	fl.BoolVar(&f.noTerrain, "no-terrain", false, "skip terrain generation")
	fl.BoolVar(&f.noStructures, "no-structures", false, "skip structures")
	fl.BoolVar(&f.noObjects, "no-objects", false, "skip scattered objects")
	fl.IntVar(&f.maxObjects, "max-objects", 50000, "limit on total scattered objects")
	fl.StringVarP(&f.out, "out", "o", "-", "scene document output path, - for stdout")
	fl.StringVar(&f.preview, "preview", "", "also write a 2D preview JSON to this path")
}

func generateCmd() *cobra.Command {
	var f genFlags
	cmd := &cobra.Command{
		Use:   "generate [spec-file]",
		Short: "Generate a scene document from a JSON or YAML world spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.seedRequested = cmd.Flags().Changed("seed")
			return runGenerate(cmd.Context(), args[0], f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f.register(cmd)
	return cmd
}

func promptCmd() *cobra.Command {
	var (
		f          genFlags
		style      string
		complexity string
	)
	cmd := &cobra.Command{
		Use:   "prompt [text]",
		Short: "Translate a text prompt with the keyword translator and generate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.seedRequested = cmd.Flags().Changed("seed")
			return runPrompt(cmd.Context(), args[0], style, complexity, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&style, "style", "", "structure style hint")
	cmd.Flags().StringVar(&complexity, "complexity", "medium", "low, medium or high")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [spec-file]",
		Short: "Schema-check a world spec and show how it would be normalized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], cmd.OutOrStdout())
		},
	}
}

func serveCmd() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API with background generation workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $WORLDGEN_CONFIG)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	return cmd
}
