package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ashleydavis/hoist-modules/internal/version"
	"github.com/ashleydavis/hoist-modules/pkg/config"
	"github.com/ashleydavis/hoist-modules/pkg/filesystem"
	"github.com/ashleydavis/hoist-modules/pkg/logging"
	"github.com/ashleydavis/hoist-modules/pkg/modules"
)

var (
	verbosity  int
	force      bool
	includeDev bool
	storeDir   string

	rootCmd = &cobra.Command{
		Use:   "hoist-modules <source> <target>",
		Short: "Flatten a nested package dependency tree into a deduplicated copy",
		Long: `hoist-modules resolves a package dependency tree installed in the
conventional nested layout and writes a flattened, dependency-satisfying
copy of it to the target directory: one physical copy per package name at
the target root, with conflicting versions nested privately under the
package that requires them. Nested and symlinked layouts break bundlers
that cannot preserve links; the copy is made of real files only.`,
		Args: cobra.ExactArgs(2),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE:          runHoist,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func runHoist(cmd *cobra.Command, args []string) error {
	// the store search walks parent directories, so both paths must be
	// absolute before any resolution starts
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	target, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}
	start := time.Now()

	cfg, err := config.Load(source)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("force") {
		cfg.Force = force
	}
	if cmd.Flags().Changed("include-dev") {
		cfg.IncludeDev = includeDev
	}
	if cmd.Flags().Changed("store-dir") {
		cfg.StoreDir = storeDir
	}

	stats, err := modules.Run(filesystem.NewOS(), cfg, source, target)
	if err != nil {
		log.Error().Err(err).Msg("Hoisting failed")
		return err
	}

	logging.LogDuration(start, "hoist")
	if stats.Unresolved > 0 {
		log.Warn().Int("unresolved", stats.Unresolved).Msg("Completed with unresolved dependencies")
	}
	return nil
}

// Execute runs the root command; main turns an error into exit code 1
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v DEBUG, -vv TRACE)")
	rootCmd.Flags().BoolVar(&force, "force", false, "Overwrite the target directory if it already exists")
	rootCmd.Flags().BoolVar(&includeDev, "include-dev", false, "Also resolve development-only dependency ranges")
	rootCmd.Flags().StringVar(&storeDir, "store-dir", config.Default().StoreDir, "Name of the shared package store directory")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hoist-modules version %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}
