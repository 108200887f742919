// File: cmd/s3client/object_cmd.go
package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"s3client/internal/flags"
	"s3client/internal/service"
	"s3client/internal/transfer"

	"github.com/spf13/cobra"
)

type objectFlags struct {
	provider    string
	prefix      string
	ttlSeconds  int64
	concurrency int
}

func newObjectCmd() *cobra.Command {
	cmdFlags := objectFlags{}

	objectCmd := &cobra.Command{
		Use:   "object",
		Short: "Manage objects and transfer files",
		Long:  `The object command lists, uploads, downloads and deletes objects, transfers whole directory trees and issues pre-signed download links.`,
	}

	providerFlag := func(cmd *cobra.Command) {
		cmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
		_ = cmd.MarkFlagRequired(flags.Provider)
	}

	lsCmd := &cobra.Command{
		Use:   "ls [bucket-name]",
		Short: "List objects in a bucket",
		Long:  `Lists every object in a bucket, or only those whose key starts with --prefix, following all listing pages.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			objects, err := app.ObjectService.ListObjects(cmd.Context(), args[0], cmdFlags.provider, cmdFlags.prefix)
			if err != nil {
				return fmt.Errorf("error listing objects in '%s': %w", args[0], err)
			}
			return app.render(app.StorageFormatter.FormatObjectList(args[0], cmdFlags.prefix, objects))
		},
	}
	providerFlag(lsCmd)
	lsCmd.Flags().StringVar(&cmdFlags.prefix, flags.Prefix, "", "Only list keys starting with this prefix")

	infoCmd := &cobra.Command{
		Use:   "info [bucket-name] [key]",
		Short: "Show the metadata of an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			object, err := app.ObjectService.DescribeObject(cmd.Context(), args[0], args[1], cmdFlags.provider)
			if err != nil {
				return fmt.Errorf("error describing object '%s': %w", args[1], err)
			}
			return app.render(app.StorageFormatter.FormatObjectDetails(object))
		},
	}
	providerFlag(infoCmd)

	putCmd := &cobra.Command{
		Use:   "put [bucket-name] [key] [local-path]",
		Short: "Upload a single file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			bucketName, key, localPath := args[0], args[1], args[2]
			if err := app.ObjectService.UploadFile(cmd.Context(), cmdFlags.provider, localPath, bucketName, key); err != nil {
				return fmt.Errorf("error uploading '%s': %w", localPath, err)
			}
			fmt.Fprintf(app.Out, "Uploaded '%s' to %s/%s.\n", localPath, bucketName, key)
			return nil
		},
	}
	providerFlag(putCmd)

	getCmd := &cobra.Command{
		Use:   "get [bucket-name] [key] [local-path]",
		Short: "Download a single object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			bucketName, key, localPath := args[0], args[1], args[2]
			if err := app.ObjectService.DownloadFile(cmd.Context(), cmdFlags.provider, bucketName, key, localPath); err != nil {
				return fmt.Errorf("error downloading '%s': %w", key, err)
			}
			fmt.Fprintf(app.Out, "Downloaded %s/%s to '%s'.\n", bucketName, key, localPath)
			return nil
		},
	}
	providerFlag(getCmd)

	rmCmd := &cobra.Command{
		Use:   "rm [bucket-name] [key]",
		Short: "Delete a single object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.ObjectService.DeleteObject(cmd.Context(), args[0], args[1], cmdFlags.provider); err != nil {
				return fmt.Errorf("error deleting '%s': %w", args[1], err)
			}
			fmt.Fprintf(app.Out, "Deleted %s/%s.\n", args[0], args[1])
			return nil
		},
	}
	providerFlag(rmCmd)

	presignCmd := &cobra.Command{
		Use:   "presign [bucket-name] [key]",
		Short: "Issue a pre-signed download link",
		Long:  `Issues a time-limited GET link for an object. The lifetime defaults to transfer.presign_ttl (one hour) and may not exceed seven days.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			ttl := cmdFlags.ttlSeconds
			if !cmd.Flags().Changed(flags.TTL) {
				ttl = int64(app.Config.Transfer.PresignTTL.Seconds())
			}

			link, err := app.ObjectService.Presign(cmd.Context(), args[0], args[1], cmdFlags.provider, ttl)
			if err != nil {
				return fmt.Errorf("error pre-signing '%s': %w", args[1], err)
			}
			return app.render(app.StorageFormatter.FormatPresignedURL(link))
		},
	}
	providerFlag(presignCmd)
	presignCmd.Flags().Int64Var(&cmdFlags.ttlSeconds, flags.TTL, transfer.DefaultPresignTTL, "Link lifetime in seconds")

	uploadDirCmd := &cobra.Command{
		Use:   "upload-dir [bucket-name] [local-dir]",
		Short: "Upload a directory tree",
		Long: `Uploads every regular file below a local directory. Keys are the slash-separated relative paths
under --prefix, which defaults to the directory's base name (./photos/a.jpg becomes photos/a.jpg).
Pass --prefix "" to upload to the bucket root.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			prefix := cmdFlags.prefix
			if !cmd.Flags().Changed(flags.Prefix) {
				prefix, err = defaultUploadPrefix(args[1])
				if err != nil {
					return err
				}
			}

			report, err := objectServiceFor(cmd, app, cmdFlags.concurrency).
				UploadDirectory(cmd.Context(), cmdFlags.provider, args[1], args[0], prefix)
			return finishTransfer(app, report, err)
		},
	}
	providerFlag(uploadDirCmd)
	uploadDirCmd.Flags().StringVar(&cmdFlags.prefix, flags.Prefix, "", "Key prefix to upload under (default: the directory's base name)")
	uploadDirCmd.Flags().IntVar(&cmdFlags.concurrency, flags.Concurrency, 0, "Parallel transfers (default transfer.concurrency)")

	downloadDirCmd := &cobra.Command{
		Use:   "download-dir [bucket-name] [prefix] [local-dir]",
		Short: "Download every object under a prefix",
		Long:  `Downloads every object whose key starts with the prefix, recreating the key hierarchy below the local directory. Use "" to download the whole bucket.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			report, err := objectServiceFor(cmd, app, cmdFlags.concurrency).
				DownloadDirectory(cmd.Context(), cmdFlags.provider, args[0], args[1], args[2])
			return finishTransfer(app, report, err)
		},
	}
	providerFlag(downloadDirCmd)
	downloadDirCmd.Flags().IntVar(&cmdFlags.concurrency, flags.Concurrency, 0, "Parallel transfers (default transfer.concurrency)")

	objectCmd.AddCommand(lsCmd, infoCmd, putCmd, getCmd, rmCmd, presignCmd, uploadDirCmd, downloadDirCmd)
	return objectCmd
}

// Returns the shared object service unless --concurrency overrides the configured worker count
func objectServiceFor(cmd *cobra.Command, app *appContainer, concurrency int) *service.ObjectService {
	if !cmd.Flags().Changed(flags.Concurrency) || concurrency <= 0 {
		return app.ObjectService
	}
	return app.objectService(concurrency)
}

// Names keys after the uploaded folder, resolving "." and ".." against the working directory
func defaultUploadPrefix(localDir string) (string, error) {
	abs, err := filepath.Abs(localDir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", localDir, err)
	}
	base := filepath.Base(abs)
	if base == string(filepath.Separator) || base == "." {
		return "", nil
	}
	return base, nil
}

// Renders the report even when the transfer aborted, so partial progress is visible.
// A report without a status means the transfer never started.
func finishTransfer(app *appContainer, report transfer.TransferReport, transferErr error) error {
	if report.Status != "" {
		if err := app.render(app.StorageFormatter.FormatTransferReport(report)); err != nil {
			return errors.Join(transferErr, err)
		}
	}
	if transferErr != nil {
		return transferErr
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d transfers failed", len(report.Failed))
	}
	return nil
}
