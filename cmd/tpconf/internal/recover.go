package internal

import (
	"context"
	"fmt"

	"github.com/goplus/tpconf/internal/config"
	"github.com/goplus/tpconf/internal/gn"
	"github.com/goplus/tpconf/internal/shim"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Regenerate an already configured build directory",
	Long: `Recover reruns gn gen on a build directory configured earlier, keeping its
args.gn. Options are not derived again and no third-party library is
reconfigured.`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	addDirFlags(recoverCmd.Flags())
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	opts := config.Options{SourceRoot: sourceRoot, OutDir: outDir}
	if err := resolveDirs(&opts); err != nil {
		return err
	}
	runner, err := newRunner(opts.SourceRoot)
	if err != nil {
		return err
	}

	ctx := context.Background()
	g := &gn.GN{Runner: runner, Root: opts.SourceRoot}
	if err := g.Gen(ctx, opts.OutDir); err != nil {
		return err
	}
	if makefile {
		d, err := g.Resolve(ctx, opts.OutDir)
		if err != nil {
			return err
		}
		if err := shim.Write(opts.OutDir, opts.SourceRoot, d.TargetOS); err != nil {
			return fmt.Errorf("failed to write Makefile: %w", err)
		}
	}
	log.Infof("regenerated %s", opts.OutDir)
	return nil
}
