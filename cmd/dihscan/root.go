package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rmera/dihscan/scan"
	"github.com/spf13/cobra"
)

type globals struct {
	logLevel   string
	configPath string
	log        *slog.Logger
	cfg        scan.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "dihscan",
		Short:         "Rotate protein backbone dihedrals, at fixed intervals or at random",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
				return fmt.Errorf("bad --log-level %q: %w", g.logLevel, err)
			}
			g.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			g.cfg = scan.DefaultConfig()
			if g.configPath == "" {
				return nil
			}
			f, err := os.Open(g.configPath)
			if err != nil {
				return err
			}
			defer f.Close()
			g.cfg, err = scan.LoadConfig(f)
			if err != nil {
				return fmt.Errorf("%s: %w", g.configPath, err)
			}
			g.log.Debug("configuration loaded", "file", g.configPath)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML file with the scan configuration. Flags override its values")
	root.AddCommand(newRunCmd(g), newDihedralsCmd(g))
	return root
}
