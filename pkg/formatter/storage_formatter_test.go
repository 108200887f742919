// File: pkg/formatter/storage_formatter_test.go
package formatter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"s3client/internal/transfer"
	"s3client/pkg/common"
	"s3client/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var created = time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)

func TestParseOutputFormat(t *testing.T) {
	for input, want := range map[string]OutputFormat{"": OutputTable, "TABLE": OutputTable, "json": OutputJSON, "yaml": OutputYAML} {
		got, err := ParseOutputFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}

func TestFormatBucketListTable(t *testing.T) {
	out, err := NewStorageFormatter(OutputTable).FormatBucketList([]storage.Bucket{
		{Name: "media", Provider: common.AWS, Location: "eu-west-1", CreatedAt: created},
		{Name: "backups", Provider: common.MinIO},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "BUCKET NAME")
	assert.Contains(t, out, "media")
	assert.Contains(t, out, "eu-west-1")
	assert.Contains(t, out, "2024-02-29")
	assert.Contains(t, out, "N/A")
}

func TestFormatBucketListJSON(t *testing.T) {
	out, err := NewStorageFormatter(OutputJSON).FormatBucketList([]storage.Bucket{
		{Name: "media", Provider: common.AWS, Location: "eu-west-1", CreatedAt: created},
	})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "media", decoded[0]["name"])
	assert.Equal(t, "AWS", decoded[0]["provider"])
}

func TestFormatObjectListSummary(t *testing.T) {
	out, err := NewStorageFormatter(OutputTable).FormatObjectList("media", "photos/", []storage.Object{
		{Key: "photos/a.jpg", Size: 1536, LastModified: created},
		{Key: "photos/b.jpg", Size: 512, LastModified: created},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "photos/a.jpg")
	assert.Contains(t, out, "1.5 KiB")
	assert.Contains(t, out, "2 objects, 2.0 KiB in media/photos/")
}

func TestFormatBucketDetailsPolicy(t *testing.T) {
	f := NewStorageFormatter(OutputTable)

	out, err := f.FormatBucketDetails(storage.Bucket{Name: "site", Provider: common.GCP, Versioning: storage.VersioningEnabled, Policy: `{"a":1}`})
	require.NoError(t, err)
	assert.Contains(t, out, "Bucket: site")
	assert.Contains(t, out, "Enabled")
	assert.Contains(t, out, "\"a\": 1")

	out, err = f.FormatBucketDetails(storage.Bucket{Name: "plain", Provider: common.GCP})
	require.NoError(t, err)
	assert.Contains(t, out, "(none)")
	assert.NotContains(t, out, "Usage")
}

func TestFormatBucketDetailsUsage(t *testing.T) {
	usage := int64(3 << 20)
	bucket := storage.Bucket{Name: "media", Provider: common.GCP, UsageBytes: &usage}

	out, err := NewStorageFormatter(OutputTable).FormatBucketDetails(bucket)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage")
	assert.Contains(t, out, "3.0 MiB")

	out, err = NewStorageFormatter(OutputJSON).FormatBucketDetails(bucket)
	require.NoError(t, err)
	assert.Contains(t, out, `"usageBytes": 3145728`)
}

func TestFormatTransferReport(t *testing.T) {
	report := transfer.TransferReport{
		Succeeded: []string{"a.txt", "b.txt"},
		Failed:    []transfer.TransferFailure{{Path: "/src/c.txt", Key: "c.txt", Err: errors.New("permission denied")}},
		Bytes:     2048,
		Status:    transfer.StatusCompleted,
	}

	out, err := NewStorageFormatter(OutputTable).FormatTransferReport(report)
	require.NoError(t, err)
	assert.Contains(t, out, "Completed: 2 transferred (2.0 KiB), 1 failed")
	assert.Contains(t, out, "permission denied")

	out, err = NewStorageFormatter(OutputYAML).FormatTransferReport(report)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Completed", decoded["status"])
	failed, ok := decoded["failed"].([]any)
	require.True(t, ok)
	assert.Len(t, failed, 1)
}

func TestFormatDeleteReport(t *testing.T) {
	out, err := NewStorageFormatter(OutputTable).FormatDeleteReport(transfer.DeleteReport{
		Deleted: 2500,
		Batches: 3,
		Status:  transfer.StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, "Completed: 2,500 objects deleted in 3 batches, 0 failed", out)
}

func TestFormatSettingsFlattensKeys(t *testing.T) {
	out := FormatSettings(map[string]interface{}{
		"aws":      map[string]interface{}{"region": "us-east-1", "path_style": true},
		"transfer": map[string]interface{}{"concurrency": 4},
	})
	assert.Contains(t, out, "aws.region")
	assert.Contains(t, out, "us-east-1")
	assert.Contains(t, out, "aws.path_style")
	assert.Contains(t, out, "transfer.concurrency")
}

func TestTableRendersAllCells(t *testing.T) {
	tbl := NewTable([]string{"A", "B"})
	tbl.AddRow([]string{"one", "two"})
	out := tbl.String()
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.Empty(t, NewTable(nil).String())
}
