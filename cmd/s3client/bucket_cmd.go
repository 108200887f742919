// File: cmd/s3client/bucket_cmd.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"s3client/internal/flags"
	"s3client/internal/provider/factory"
	"s3client/internal/provider/registry"
	"s3client/pkg/storage"

	"github.com/spf13/cobra"
)

type bucketFlags struct {
	providersList []string
	provider      string
	location      string
	prefix        string
	policyFile    string
	indexDoc      string
	errorDoc      string
	force         bool
}

func newBucketCmd() *cobra.Command {
	cmdFlags := bucketFlags{}

	bucketCmd := &cobra.Command{
		Use:   "bucket",
		Short: "Manage buckets",
		Long:  `The bucket command lists, describes, creates, empties and deletes buckets, and manages their policy, versioning and website settings.`,
	}

	requireProvider := func(cmd *cobra.Command, usage string) {
		cmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", usage)
		_ = cmd.MarkFlagRequired(flags.Provider)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List buckets",
		Long: `Lists all buckets. If no flags are provided, it queries all configured providers.
Use the --providers flag to specify which providers to query (e.g., --providers aws,minio).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			providersToQuery, err := resolveProvidersForList(cmdFlags.providersList, app.ProviderFactory)
			if err != nil {
				return err
			}
			if len(providersToQuery) == 0 {
				fmt.Fprintf(app.Out, "No providers configured. Use 's3client config set'. Supported providers: %s\n", strings.Join(registry.GetSupportedProviders(), ", "))
				return nil
			}

			allBuckets, err := app.StorageService.ListAllBuckets(cmd.Context(), providersToQuery)
			if err != nil {
				return err
			}
			if len(allBuckets) == 0 {
				fmt.Fprintln(app.Out, "No buckets found.")
				return nil
			}
			return app.render(app.StorageFormatter.FormatBucketList(allBuckets))
		},
	}
	listCmd.Flags().StringSliceVarP(&cmdFlags.providersList, flags.Providers, flags.ProvidersShort, []string{}, "Specify providers to query (comma-separated). Defaults to all configured providers.")

	describeCmd := &cobra.Command{
		Use:   "describe [bucket-name]",
		Short: "Describe a bucket",
		Long:  `Shows the location, creation date, versioning status and policy of a bucket.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			bucketName := args[0]
			details, err := app.StorageService.DescribeBucket(cmd.Context(), bucketName, cmdFlags.provider)
			if err != nil {
				return fmt.Errorf("error describing bucket '%s' on %s: %w", bucketName, cmdFlags.provider, err)
			}
			return app.render(app.StorageFormatter.FormatBucketDetails(details))
		},
	}
	requireProvider(describeCmd, "The provider where the bucket resides (required)")

	createCmd := &cobra.Command{
		Use:   "create [bucket-name]",
		Short: "Create a new bucket",
		Long:  `Creates a new bucket on the specified provider. Without --location the provider's default region is used.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			bucketName := args[0]
			if err := app.StorageService.CreateBucket(cmd.Context(), bucketName, cmdFlags.provider, cmdFlags.location); err != nil {
				return fmt.Errorf("error creating bucket '%s' on %s: %w", bucketName, cmdFlags.provider, err)
			}
			fmt.Fprintf(app.Out, "Bucket '%s' created successfully on provider %s.\n", bucketName, cmdFlags.provider)
			return nil
		},
	}
	requireProvider(createCmd, "The provider to create the bucket on (required)")
	createCmd.Flags().StringVarP(&cmdFlags.location, flags.Location, flags.LocationShort, "", "The location/region to create the bucket in")

	deleteCmd := &cobra.Command{
		Use:   "delete [bucket-name]",
		Short: "Delete an empty bucket",
		Long:  `Deletes a bucket. The bucket must be empty; use 'bucket empty' first.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			bucketName := args[0]
			if !cmdFlags.force {
				ok, err := app.Prompter.Confirm(fmt.Sprintf("This will permanently delete the bucket '%s' on %s.", bucketName, cmdFlags.provider), bucketName)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(app.Out, "Deletion cancelled.")
					return nil
				}
			}

			if err := app.StorageService.DeleteBucket(cmd.Context(), bucketName, cmdFlags.provider); err != nil {
				return fmt.Errorf("error deleting bucket '%s' on %s: %w", bucketName, cmdFlags.provider, err)
			}
			fmt.Fprintf(app.Out, "Bucket '%s' deleted successfully from provider %s.\n", bucketName, cmdFlags.provider)
			return nil
		},
	}
	requireProvider(deleteCmd, "The provider where the bucket resides (required)")
	deleteCmd.Flags().BoolVarP(&cmdFlags.force, flags.Force, flags.ForceShort, false, "Skip the confirmation prompt")

	emptyCmd := &cobra.Command{
		Use:   "empty [bucket-name]",
		Short: "Delete every object in a bucket",
		Long: `Deletes all objects in a bucket, or only those in the folder named by --prefix, in batches.
--prefix photos deletes photos/... but not photos-backup/... Noncurrent versions of versioned buckets are kept.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			bucketName := args[0]
			if !cmdFlags.force {
				scope := "every object"
				if folder := storage.FolderPrefix(cmdFlags.prefix); folder != "" {
					scope = fmt.Sprintf("every object with keys starting '%s'", folder)
				}
				ok, err := app.Prompter.Confirm(fmt.Sprintf("This will permanently delete %s in bucket '%s' on %s.", scope, bucketName, cmdFlags.provider), bucketName)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(app.Out, "Deletion cancelled.")
					return nil
				}
			}

			report, deleteErr := app.ObjectService.EmptyBucket(cmd.Context(), bucketName, cmdFlags.provider, cmdFlags.prefix)
			if report.Status != "" {
				if err := app.render(app.StorageFormatter.FormatDeleteReport(report)); err != nil {
					return err
				}
			}
			if deleteErr != nil {
				return fmt.Errorf("error emptying bucket '%s' on %s: %w", bucketName, cmdFlags.provider, deleteErr)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d objects could not be deleted", len(report.Failed))
			}
			return nil
		},
	}
	requireProvider(emptyCmd, "The provider where the bucket resides (required)")
	emptyCmd.Flags().StringVar(&cmdFlags.prefix, flags.Prefix, "", "Only delete objects in this folder (matched as 'prefix/')")
	emptyCmd.Flags().BoolVarP(&cmdFlags.force, flags.Force, flags.ForceShort, false, "Skip the confirmation prompt")

	bucketCmd.AddCommand(listCmd, describeCmd, createCmd, deleteCmd, emptyCmd,
		newPolicyCmd(&cmdFlags), newVersioningCmd(&cmdFlags), newWebsiteCmd(&cmdFlags))
	return bucketCmd
}

func newPolicyCmd(cmdFlags *bucketFlags) *cobra.Command {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Get or set a bucket policy",
	}

	getCmd := &cobra.Command{
		Use:   "get [bucket-name]",
		Short: "Print the bucket policy document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			policy, err := app.StorageService.GetBucketPolicy(cmd.Context(), args[0], cmdFlags.provider)
			if err != nil {
				return fmt.Errorf("error getting policy of bucket '%s': %w", args[0], err)
			}
			fmt.Fprintln(app.Out, policy)
			return nil
		},
	}
	getCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
	_ = getCmd.MarkFlagRequired(flags.Provider)

	setCmd := &cobra.Command{
		Use:   "set [bucket-name]",
		Short: "Replace the bucket policy with a JSON document",
		Long:  `Uploads the policy document read from --file ('-' reads standard input). The document must be valid JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			var data []byte
			if cmdFlags.policyFile == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(cmdFlags.policyFile)
			}
			if err != nil {
				return fmt.Errorf("error reading policy document: %w", err)
			}

			if err := app.StorageService.SetBucketPolicy(cmd.Context(), args[0], cmdFlags.provider, string(data)); err != nil {
				return fmt.Errorf("error setting policy of bucket '%s': %w", args[0], err)
			}
			fmt.Fprintf(app.Out, "Policy of bucket '%s' updated.\n", args[0])
			return nil
		},
	}
	setCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
	_ = setCmd.MarkFlagRequired(flags.Provider)
	setCmd.Flags().StringVarP(&cmdFlags.policyFile, flags.File, flags.FileShort, "", "Path to the policy JSON document (required)")
	_ = setCmd.MarkFlagRequired(flags.File)

	policyCmd.AddCommand(getCmd, setCmd)
	return policyCmd
}

func newVersioningCmd(cmdFlags *bucketFlags) *cobra.Command {
	versioningCmd := &cobra.Command{
		Use:   "versioning [bucket-name]",
		Short: "Show the versioning status of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			status, err := app.StorageService.GetBucketVersioning(cmd.Context(), args[0], cmdFlags.provider)
			if err != nil {
				return fmt.Errorf("error getting versioning of bucket '%s': %w", args[0], err)
			}
			fmt.Fprintf(app.Out, "Versioning: %s\n", status)
			return nil
		},
	}
	versioningCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
	_ = versioningCmd.MarkFlagRequired(flags.Provider)
	return versioningCmd
}

func newWebsiteCmd(cmdFlags *bucketFlags) *cobra.Command {
	websiteCmd := &cobra.Command{
		Use:   "website [bucket-name]",
		Short: "Enable static website hosting on a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			applied, err := app.StorageService.ConfigureWebsite(cmd.Context(), args[0], cmdFlags.provider, storage.WebsiteConfig{
				IndexDocument: cmdFlags.indexDoc,
				ErrorDocument: cmdFlags.errorDoc,
			})
			if err != nil {
				return fmt.Errorf("error configuring website hosting on bucket '%s': %w", args[0], err)
			}
			fmt.Fprintf(app.Out, "Website hosting enabled on '%s' (index: %s, error: %s).\n", args[0], applied.IndexDocument, applied.ErrorDocument)
			return nil
		},
	}
	websiteCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the bucket resides (required)")
	_ = websiteCmd.MarkFlagRequired(flags.Provider)
	websiteCmd.Flags().StringVar(&cmdFlags.indexDoc, flags.Index, storage.DefaultIndexDocument, "Index document")
	websiteCmd.Flags().StringVar(&cmdFlags.errorDoc, flags.ErrorDoc, storage.DefaultErrorDocument, "Error document")
	return websiteCmd
}

func resolveProvidersForList(requestedProviders []string, providerFactory *factory.Factory) ([]string, error) {
	if len(requestedProviders) == 0 {
		return providerFactory.GetConfiguredProviders(), nil
	}

	var validatedProviders []string
	var invalidProviders []string
	seen := make(map[string]bool)

	for _, p := range requestedProviders {
		p = strings.ToLower(strings.TrimSpace(p))

		if seen[p] {
			continue
		}
		seen[p] = true

		if !registry.IsSupported(p) {
			invalidProviders = append(invalidProviders, p)
			continue
		}
		if !providerFactory.IsConfigured(p) {
			return nil, fmt.Errorf("provider '%s' was requested but is not configured. Use 's3client config set %s.<key> <value>'", p, p)
		}
		validatedProviders = append(validatedProviders, p)
	}

	if len(invalidProviders) > 0 {
		return nil, fmt.Errorf("unsupported providers requested: %v. Supported providers are: %v", invalidProviders, registry.GetSupportedProviders())
	}

	return validatedProviders, nil
}
