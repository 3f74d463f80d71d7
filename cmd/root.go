package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gitlab.com/ddpbfs.net/internal/config"
	logger2 "gitlab.com/ddpbfs.net/internal/global/logger"
	"gitlab.com/ddpbfs.net/internal/global/styles"
)

// errStartup marks failures before the coordinator could start serving
var errStartup = errors.New("startup failed")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ddpbfs [env]",
		Short: "Distributed brute-force coordinator for password protected documents",
		Long: "Hands out password candidates to connected clients and reports the password once one of them finds it.\n" +
			"Document types: 1 Microsoft Office, 2 OpenDocument, 3 PDF.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := InitReader(args[0]); err != nil {
					return fmt.Errorf("%w: %v", errStartup, err)
				}
			}

			sysCfg := config.NewSystemConfig()
			applyFlags(cmd, sysCfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := run(ctx, sysCfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.Report(result.Outcome.String(), result.Password, result.Processed, result.Elapsed))
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.String("doc-type", "", "document type: 1 Microsoft Office, 2 OpenDocument, 3 PDF")
	flags.String("file", "", "path of the protected document")
	flags.String("ip", "", "address to bind the dispatch and heartbeat listeners to")
	flags.Int("port", 0, "dispatch port")
	flags.Int("heartbeat-port", 0, "heartbeat port")
	flags.Int("password-range", 0, "maximum password length")
	flags.Int("min-length", 0, "password length to start from")
	flags.Int("payload-size", 0, "candidates per work unit")
	flags.Int("status-port", 0, "port of the read-only status API, 0 disables it")
	flags.Bool("debug", false, "enable debug logging")
	return rootCmd
}

// applyFlags lets explicitly set flags override the environment
func applyFlags(cmd *cobra.Command, sysCfg *config.AppConfig) {
	flags := cmd.Flags()
	if flags.Changed("doc-type") {
		sysCfg.ExtractorConfig.DocType, _ = flags.GetString("doc-type")
	}
	if flags.Changed("file") {
		sysCfg.ExtractorConfig.DocPath, _ = flags.GetString("file")
	}
	if flags.Changed("ip") {
		sysCfg.CoordinatorCfg.BindAddress, _ = flags.GetString("ip")
	}
	if flags.Changed("port") {
		sysCfg.CoordinatorCfg.DispatchPort, _ = flags.GetInt("port")
	}
	if flags.Changed("heartbeat-port") {
		sysCfg.CoordinatorCfg.HeartbeatPort, _ = flags.GetInt("heartbeat-port")
	}
	if flags.Changed("password-range") {
		sysCfg.CoordinatorCfg.MaxLength, _ = flags.GetInt("password-range")
	}
	if flags.Changed("min-length") {
		sysCfg.CoordinatorCfg.MinLength, _ = flags.GetInt("min-length")
	}
	if flags.Changed("payload-size") {
		sysCfg.CoordinatorCfg.PayloadSize, _ = flags.GetInt("payload-size")
	}
	if flags.Changed("status-port") {
		sysCfg.StatusConfig.Port, _ = flags.GetInt("status-port")
	}
	if flags.Changed("debug") {
		sysCfg.DebugMode, _ = flags.GetBool("debug")
	}
}

// InitReader loads <environment>.env into the process environment
func InitReader(environment string) error {
	if err := godotenv.Load(environment + ".env"); err != nil {
		return fmt.Errorf("error loading %s.env file: %w", environment, err)
	}
	return nil
}

// Execute runs the root command and maps the result to an exit code
func Execute() int {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger2.Error("Coordinator failed", "error", err)
		styles.FprintFS(os.Stderr, "error", "%v", err)
		return 1
	}
	return 0
}
