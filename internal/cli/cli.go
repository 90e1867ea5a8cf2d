package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/specialistvlad/workgrid/internal/app"
	"github.com/specialistvlad/workgrid/internal/config"
	"github.com/specialistvlad/workgrid/internal/registry"
)

// flags holds the persistent command line flags.
type flags struct {
	pkg             string
	verbose         bool
	versionBump     string
	noExternalLinks bool
	configPath      string
	cwd             string
	dryRun          bool
}

type cli struct {
	outW, errW io.Writer
	modules    []registry.Module
	flags      flags
}

// Execute parses args and runs the selected command. Failures are returned
// as *ExitError. modules overrides the compiled-in stages when given.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, modules ...registry.Module) error {
	c := &cli{outW: outW, errW: errW, modules: modules}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(errW)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra reports itself is a usage problem.
	return usageError(err)
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "workgrid",
		Short:         "Build, test and publish the packages of an npm workspace in dependency order.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.pkg, "package", "p", "", "Process this package and its dependencies; prefix with '!' to process it alone.")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "Enable debug logging.")
	pf.StringVar(&c.flags.versionBump, "versionbump", "", "Version bump applied at publish: major, minor, patch, pre* or an explicit version.")
	pf.BoolVar(&c.flags.noExternalLinks, "no-external-links", false, "Do not link packages from outside the workspace.")
	pf.StringVar(&c.flags.configPath, "config", "", "Path to the config file (default: workgrid.yaml in the workspace root).")
	pf.StringVar(&c.flags.cwd, "cwd", ".", "Workspace root.")
	pf.BoolVar(&c.flags.dryRun, "dry-run", false, "Log external commands instead of running them.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("report-url", "", "socket.io server receiving pipeline events.")
	pf.String("otlp-endpoint", "", "OTLP gRPC endpoint for traces.")

	root.AddCommand(
		c.listCommand(),
		c.stageCommand("install", "Link workspace packages and install external dependencies.", "install"),
		c.stageCommand("uninstall", "Remove installed dependencies.", "uninstall"),
		c.stageCommand("build", "Compile TypeScript packages.", "compile"),
		c.stageCommand("test", "Run cucumber features.", "cucumber"),
		c.stageCommand("publish", "Bump versions and publish packages.", "publish"),
		c.scriptCommand(),
		c.pipelineCommand(),
	)
	return root
}

func (c *cli) stageCommand(use, short, stage string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, []string{stage}, nil, nil)
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	var dependants bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace packages in processing order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var settings map[string]map[string]any
			if dependants {
				if c.flags.pkg == "" {
					return usageError(errors.New("--dependants requires --package"))
				}
				settings = map[string]map[string]any{"list": {"dependants": true}}
			}
			return c.run(cmd, []string{"list"}, nil, settings)
		},
	}
	cmd.Flags().BoolVar(&dependants, "dependants", false, "List the packages that depend on --package instead of its dependencies.")
	return cmd
}

func (c *cli) scriptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a package.json script in every package.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, []string{"script"}, args, nil)
		},
	}
}

func (c *cli) pipelineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline <stage>... [-- <arg>...]",
		Short: "Chain arbitrary stages, e.g. 'pipeline filter script -- lint'.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, stageArgs := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				stages, stageArgs = args[:dash], args[dash:]
			}
			if len(stages) == 0 {
				return usageError(errors.New("at least one stage is required before '--'"))
			}
			return c.run(cmd, stages, stageArgs, nil)
		},
	}
}

// run loads the configuration and hands the request to the app. settings
// are command line stage settings layered over the config file.
func (c *cli) run(cmd *cobra.Command, stages, args []string, settings map[string]map[string]any) error {
	slog.Debug("CLI parser finished.", "stages", stages)

	cfg, err := config.Load(c.flags.configPath, c.flags.cwd, cmd.Flags())
	if err != nil {
		return usageError(errors.Wrap(err, "failed to load configuration"))
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if problems := cfg.Validate(); len(problems) > 0 {
		return usageError(errors.New(strings.Join(problems, "\n")))
	}
	cfg.Options.Verbose = cfg.Options.Verbose || c.flags.verbose
	for stage, values := range settings {
		if cfg.Stages == nil {
			cfg.Stages = make(map[string]map[string]any)
		}
		cfg.Stages[stage] = lo.Assign(cfg.Stages[stage], values)
	}

	req := app.Request{
		Stages:               stages,
		Args:                 args,
		Package:              c.flags.pkg,
		VersionBump:          c.flags.versionBump,
		DisableExternalLinks: c.flags.noExternalLinks,
		DryRun:               c.flags.dryRun,
	}
	if cmd.Flags().Changed("cwd") {
		req.Cwd = c.flags.cwd
	}

	a := app.NewApp(c.outW, c.errW, cfg, c.modules...)
	return runError(a.Run(cmd.Context(), req))
}
