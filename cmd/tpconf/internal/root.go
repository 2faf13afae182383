package internal

import (
	"log"

	xlog "github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tpconf",
	Short: "Configure the third-party libraries of a GN build",
	Long: `tpconf validates build options, derives the settings of a GN build
directory and configures the bundled FFmpeg, SDL and libwebp sources so that
GN can compile them from their own build systems' outputs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			xlog.SetOutputLevel(xlog.Ldebug)
		}
	},
}

func init() {
	xlog.SetOutputLevel(xlog.Linfo)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log tool command lines and stream their output")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
