package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/attractor/internal/config"
	"github.com/san-kum/attractor/internal/dynamo"
	"github.com/san-kum/attractor/internal/expr"
	"github.com/san-kum/attractor/internal/logger"
	"github.com/san-kum/attractor/internal/registry"
)

const envPrefix = "ATTRACTOR"

var (
	libraryPath string
	logLevel    string
	logFile     string

	logCloser io.Closer
)

func main() {
	// a missing .env is the normal case
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		var perr *expr.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintln(os.Stderr, perr.Snippet())
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "attractor",
		Short:         "strange attractor builder: define, integrate and post-process 3D ODE systems",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initSettings()
		},
	}

	rootCmd.PersistentFlags().StringVar(&libraryPath, "library", "", "custom library file [default: <config dir>/AttractorBuilder/custom_attractors.json]")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error) [default: warn]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file instead of stderr")

	for _, name := range []string{"library", "log-level", "log-file"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", name, err)
		}
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("library", config.DefaultLibraryPath())

	rootCmd.AddCommand(
		newListCmd(),
		newShowCmd(),
		newParamsCmd(),
		newSaveCmd(),
		newDeleteCmd(),
		newCopyCmd(),
		newNoteCmd(),
		newRunCmd(),
		newPostCmd(),
		newAnalyzeCmd(),
		newSweepCmd(),
		newEnsembleCmd(),
		newRunsCmd(),
		newBatchCmd(),
		newPresetsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func initSettings() error {
	closer, err := logger.Configure(viper.GetString("log-level"), viper.GetString("log-file"))
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	logCloser = closer
	return nil
}

// openRegistry loads the custom library. A damaged library leaves the
// built-ins usable; the problem is logged and the command goes on.
func openRegistry(ctx context.Context) *registry.Registry {
	path := viper.GetString("library")
	reg := registry.New(registry.NewFileStore(path))
	if err := reg.Load(ctx); err != nil {
		logger.Warn("custom library unavailable", "path", path, "err", err)
	}
	return reg
}

// parseParamFlags turns repeated k=v flags into a map.
func parseParamFlags(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, dynamo.NewConfigError("param", pair, "expected name=value")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, dynamo.NewConfigError("param", pair, "value is not a number")
		}
		out[k] = f
	}
	return out, nil
}
