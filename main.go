package main

import (
	"context"
	"os"

	"ffxiv_damage/config"
	"ffxiv_damage/share"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const release = "ffxiv_damage@1.0.0"

var (
	flagEnvFile string
	flagPresets string
	flagDebug   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ffxiv_damage",
	Short: "Incoming damage timelines from FFLogs reports",
	Long: `Fetches boss fights from the FFLogs v2 API, classifies the damage the party took
and renders it as a static HTML report.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(flagEnvFile)
		if err != nil {
			return err
		}
		if flagDebug {
			c.Debug = true
		}

		if _, err := share.NewLogger(c.Debug); err != nil {
			return err
		}
		if err := share.InitSentry(c.SentryDSN, release); err != nil {
			return err
		}

		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		share.FlushSentry()
		zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env", ".env", "dotenv file to load")
	pf.StringVar(&flagPresets, "presets", "presets/presets.yaml", "fight presets")
	pf.BoolVar(&flagDebug, "debug", false, "debug logging")

	rootCmd.AddCommand(generateCmd, abilitiesCmd, serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		share.CaptureError(err)
		share.FlushSentry()
		os.Exit(1)
	}
}
