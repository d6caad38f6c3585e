package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kazupon/rolldown/internal/config"
	"github.com/kazupon/rolldown/internal/exitcode"
	"github.com/kazupon/rolldown/internal/logger"
	"github.com/kazupon/rolldown/pkg/api"
)

// Config keys that can also be set with a flag
var flagKeys = []string{
	"cwd",
	"dir",
	"manifest",
	"sourcemap",
	"sourcesContent",
	"banner",
	"footer",
	"concurrency",
	"logLevel",
}

func newRootCmd(stdout io.Writer, stderr *os.File) *cobra.Command {
	root := &cobra.Command{
		Use:   "rolldown",
		Short: "Render linked chunks into output files with source maps",
		Long: `rolldown renders the chunks described by a link manifest.

Each chunk's modules are concatenated in order behind a comment naming their
file, wrapped in the chunk's imports, exports, banner and footer. Source maps
of the modules are composed into one map per chunk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitcode.Set(err, exitcode.Usage)
	})

	root.AddCommand(newBuildCmd(stdout, stderr))
	root.AddCommand(newVersionCmd())
	return root
}

func noArgs(cmd *cobra.Command, args []string) error {
	return exitcode.Set(cobra.NoArgs(cmd, args), exitcode.Usage)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		},
	}
}

func newBuildCmd(stdout io.Writer, stderr *os.File) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every chunk in the manifest",
		Long: `Render every chunk in the manifest and write the results to the output
directory.

Settings are read from rolldown.yaml in the working directory, then from
ROLLDOWN_* environment variables, then from flags.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, configFile, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "path to the config file (default: rolldown.yaml in the working directory)")
	flags.String("cwd", "", "working directory (default: the current directory)")
	flags.StringP("dir", "d", "dist", "output directory")
	flags.StringP("manifest", "m", "rolldown.manifest.yaml", "path to the link manifest")
	flags.String("sourcemap", "none", "source map mode: none, inline, linked or external")
	flags.Bool("sources-content", true, "embed the original sources in source maps")
	flags.String("banner", "", "text to put at the top of every chunk")
	flags.String("footer", "", "text to put at the bottom of every chunk")
	flags.Int("concurrency", 0, "maximum number of modules rendered at once (default: one per CPU)")
	flags.String("log-level", "info", "log level: debug, info, warn, error or silent")

	return cmd
}

// Anything wrong before the build starts is a usage error. Failures of the
// build itself are reported as such.
func runBuild(cmd *cobra.Command, configFile string, stdout io.Writer, stderr *os.File) error {
	loader := config.NewLoader()
	if err := loader.BindFlags(cmd.Flags(), flagKeys...); err != nil {
		return err
	}

	// The config file is looked up in the working directory, so that has to
	// be known before anything else
	cwd, err := cmd.Flags().GetString("cwd")
	if err != nil {
		return err
	}
	if cwd, err = absDir(cwd); err != nil {
		return exitcode.Set(err, exitcode.Usage)
	}

	file, err := loader.Load(configFile, cwd)
	if err != nil {
		return exitcode.Set(err, exitcode.Usage)
	}
	log := logger.Setup(logger.Options{Level: file.LogLevel, Out: stderr})
	if used := loader.ConfigFileUsed(); used != "" {
		log.Debug("loaded config", "path", used)
	}

	options, err := buildOptions(file, cwd)
	if err != nil {
		return exitcode.Set(err, exitcode.Usage)
	}
	result, err := api.Build(cmd.Context(), options)
	if len(result.OutputFiles) > 0 {
		fmt.Fprintln(stdout, summaryTable(result, options.AbsWorkingDir))
	}
	return err
}

func absDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}

func buildOptions(file *config.File, cwd string) (api.BuildOptions, error) {
	sourceMap, err := config.ParseSourceMap(file.Sourcemap)
	if err != nil {
		return api.BuildOptions{}, err
	}

	// A "cwd" in the config file is relative to the directory it was found in
	if file.Cwd != "" {
		if filepath.IsAbs(file.Cwd) {
			cwd = file.Cwd
		} else {
			cwd = filepath.Join(cwd, file.Cwd)
		}
	}

	options := api.BuildOptions{
		AbsWorkingDir: cwd,
		Outdir:        file.Dir,
		ManifestPath:  file.Manifest,
		Banner:        file.Banner,
		Footer:        file.Footer,
		Concurrency:   file.Concurrency,
		Write:         true,
	}

	switch sourceMap {
	case config.SourceMapInline:
		options.Sourcemap = api.SourceMapInline
	case config.SourceMapLinkedWithComment:
		options.Sourcemap = api.SourceMapLinked
	case config.SourceMapExternalWithoutComment:
		options.Sourcemap = api.SourceMapExternal
	}
	if !file.SourcesContent {
		options.SourcesContent = api.SourcesContentExclude
	}
	return options, nil
}
