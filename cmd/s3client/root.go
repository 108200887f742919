// File: cmd/s3client/root.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"s3client/internal/flags"

	"github.com/spf13/cobra"
)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := appOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "s3client",
		Short: "s3client is a command-line client for S3-compatible object stores.",
		Long: `A unified CLI for S3-compatible object stores (AWS S3, MinIO, Google Cloud Storage).
List and administer buckets, transfer files and whole directory trees, empty
buckets safely and issue pre-signed download links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts)
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.debug, flags.Debug, flags.DebugShort, false, "Enable debug logging")
	pf.StringVarP(&opts.output, flags.Output, flags.OutputShort, "table", "Output format: table, json or yaml")
	pf.StringVar(&opts.configPath, flags.Config, "", "Path to the config file (default ~/.config/s3client/config.yaml)")

	rootCmd.AddCommand(newBucketCmd(), newObjectCmd(), newConfigCmd())
	return rootCmd
}

// Runs the command tree and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
