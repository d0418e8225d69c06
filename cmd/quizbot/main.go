package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/m3rciful/quizbot/core/buildinfo"
	corecmd "github.com/m3rciful/quizbot/core/cmd"
	"github.com/m3rciful/quizbot/quizbot"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "quizbot",
		Short: "Telegram quiz bot",
		Long: `quizbot asks a fixed bank of multiple-choice questions over Telegram,
checks each answer and reports the score when the last question is answered.`,
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        configPath,
				ConfigEnvVar:      "CONFIG_PATH",
				DefaultConfigPath: "config.yaml",
				LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
					return quizbot.LoadConfig(path)
				},
				Bootstrap: quizbot.Bootstrap,
			})
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default $CONFIG_PATH or ./config.yaml)")
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "quizbot %s\n", buildinfo.Version)
			fmt.Fprintf(out, "commit: %s\n", buildinfo.Commit)
			if buildinfo.Date != "" {
				fmt.Fprintf(out, "built: %s\n", buildinfo.Date)
			}
			fmt.Fprintf(out, "go: %s\n", runtime.Version())
		},
	}
}
