package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/goplus/tpconf/internal/config"
	"github.com/goplus/tpconf/internal/gn"
	"github.com/goplus/tpconf/internal/pipeline"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/goplus/tpconf/internal/shim"
	"github.com/goplus/tpconf/internal/thirdparty"
	"github.com/goplus/tpconf/internal/toolexec"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure a build directory",
	Long: `Configure validates the options, derives the build settings, configures
every needed third-party library and writes args.gn into the build directory
before generating it with gn.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	addDirFlags(configureCmd.Flags())
	addOptionFlags(configureCmd.Flags())
	rootCmd.AddCommand(configureCmd)
}

// newRunner returns the tool runner with the .env overrides of root.
func newRunner(root string) (*toolexec.Runner, error) {
	env, err := loadEnv(root)
	if err != nil {
		return nil, err
	}
	r := toolexec.New(env)
	if verbose {
		r.Verbose(os.Stderr)
	}
	return r, nil
}

func runConfigure(cmd *cobra.Command, args []string) error {
	host := config.CurrentHost()
	opts, err := loadOptions(cmd, host)
	if err != nil {
		return err
	}
	extra, err := gn.ParseArgs(opts.GNArgs)
	if err != nil {
		return err
	}
	runner, err := newRunner(opts.SourceRoot)
	if err != nil {
		return err
	}
	steps, err := thirdparty.Steps()
	if err != nil {
		return err
	}

	ctx := context.Background()
	g := &gn.GN{Runner: runner, Root: opts.SourceRoot}
	o := &pipeline.Orchestrator{
		SourceDir: opts.SourceRoot,
		DestDir:   opts.OutDir,
		Derive: func() (*settings.Settings, error) {
			return config.Derive(opts, host)
		},
		Bootstrap: func(ctx context.Context, view settings.View) error {
			return g.Bootstrap(ctx, opts.OutDir, view, extra)
		},
		Resolver: g,
		Registry: steps,
		Runner:   runner,
		Observer: pipeline.LogObserver,
	}
	s, err := o.Run(ctx)
	if err != nil {
		return err
	}

	if err := gn.WriteArgs(opts.OutDir, s, extra); err != nil {
		return fmt.Errorf("failed to write %s: %w", gn.ArgsFile, err)
	}
	if err := g.Gen(ctx, opts.OutDir); err != nil {
		return err
	}
	if opts.Makefile {
		if err := shim.Write(opts.OutDir, opts.SourceRoot, s.String(settings.TargetOS)); err != nil {
			return fmt.Errorf("failed to write Makefile: %w", err)
		}
	}
	log.Infof("configured %s", opts.OutDir)
	return nil
}
