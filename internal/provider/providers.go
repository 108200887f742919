// File: internal/provider/providers.go
package provider

// Blank imports run each provider package's init(), which registers it with
// the provider registry. New providers live under pkg/storage/<name> and are
// added here.

import (
	_ "s3client/pkg/storage/aws"
	_ "s3client/pkg/storage/gcp"
	_ "s3client/pkg/storage/minio"
)
