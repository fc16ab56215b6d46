package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shaderstore/internal/config"
	"shaderstore/internal/generate"
	"shaderstore/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	inputDir   string
	outputDir  string

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shaderstore",
	Short: "Generate C++ shader headers and shader store registries",
	Long: `shaderstore converts a directory of GLSL shader files into C++ headers.

Every shader becomes a header holding its text in a string constant, and two
registry classes map shader names to those constants: one for complete
shaders and one for include fragments.

Output is deterministic and files whose content is unchanged are not
rewritten, so running the generator on an up-to-date tree touches nothing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.For(logger, logging.CategoryBoot).Debug("Configuration loaded",
			zap.String("config", configPath),
			zap.String("input", cfg.Input.ShaderDir),
			zap.String("output", cfg.Output.Root))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "shaderstore.yaml", "Configuration file (defaults apply when missing)")
	rootCmd.PersistentFlags().StringVarP(&inputDir, "input", "i", "", "Shader input directory (or set SHADERSTORE_INPUT_DIR)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Output root directory (or set SHADERSTORE_OUTPUT_DIR)")

	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be written without writing")
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// loadConfig reads the configuration file and applies flag overrides. Flags
// win over environment variables, which win over the file.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if inputDir != "" {
		c.Input.ShaderDir = inputDir
	}
	if outputDir != "" {
		c.Output.Root = outputDir
	}
	return c, nil
}

// newGenerator validates the configuration and builds a generator for it.
func newGenerator(opts ...generate.Option) (*generate.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	opts = append([]generate.Option{generate.WithLogger(logger)}, opts...)
	return generate.New(cfg, opts...), nil
}

// errStale is returned by check when generated files are out of date.
var errStale = errors.New("generated files are out of date")

// exitCode maps errors to process exit codes: 2 for stale output, 3 for bad
// directories, 4 for name collisions, 1 for everything else.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errStale):
		return 2
	case errors.Is(err, generate.ErrInvalidInputDirectory), errors.Is(err, generate.ErrInvalidOutputDirectory):
		return 3
	case errors.Is(err, generate.ErrNameCollision):
		return 4
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
