// File: pkg/storage/gcp/mappers.go
package gcp

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"s3client/pkg/common"
	"s3client/pkg/storage"

	"cloud.google.com/go/iam/apiv1/iampb"
	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/protobuf/encoding/protojson"
)

// Maps GCP SDK object attributes to the domain model
func mapObjectAttributes(attrs *gcpstorage.ObjectAttrs) storage.Object {
	if attrs == nil {
		return storage.Object{}
	}
	return storage.Object{
		Key:          attrs.Name,
		Bucket:       attrs.Bucket,
		Provider:     common.GCP,
		Size:         attrs.Size,
		LastModified: attrs.Updated,
		ETag:         attrs.Etag,
		ContentType:  attrs.ContentType,
	}
}

func mapVersioning(enabled bool) storage.VersioningStatus {
	if enabled {
		return storage.VersioningEnabled
	}
	return storage.VersioningDisabled
}

func mapWebsite(website storage.WebsiteConfig) *gcpstorage.BucketWebsite {
	website = website.WithDefaults()
	return &gcpstorage.BucketWebsite{
		MainPageSuffix: website.IndexDocument,
		NotFoundPage:   website.ErrorDocument,
	}
}

// Renders bindings as a version 3 policy document, sorted for deterministic output
func marshalPolicy(bindings []*iampb.Binding) (string, error) {
	sorted := make([]*iampb.Binding, len(bindings))
	copy(sorted, bindings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GetRole() < sorted[j].GetRole()
	})

	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(&iampb.Policy{
		Version:  3,
		Bindings: sorted,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode IAM policy: %w", err)
	}
	return string(data), nil
}

func unmarshalPolicy(document string) ([]*iampb.Binding, error) {
	var policy iampb.Policy
	if err := protojson.Unmarshal([]byte(document), &policy); err != nil {
		return nil, fmt.Errorf("invalid IAM policy document: %w", err)
	}
	return policy.GetBindings(), nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gcpstorage.ErrObjectNotExist) || errors.Is(err, gcpstorage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
		}
	}
	return err
}
