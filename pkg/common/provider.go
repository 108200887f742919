// File: pkg/common/provider.go
package common

type Provider string

const (
	AWS   Provider = "AWS"
	MinIO Provider = "MinIO"
	GCP   Provider = "GCP"
)
