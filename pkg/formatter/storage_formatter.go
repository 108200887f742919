// File: pkg/formatter/storage_formatter.go
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"s3client/internal/transfer"
	"s3client/pkg/storage"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

// Parses the --output flag value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputTable, OutputJSON, OutputYAML:
		return f, nil
	case "":
		return OutputTable, nil
	default:
		return "", fmt.Errorf("unsupported output format '%s' (expected table, json or yaml)", s)
	}
}

type StorageFormatter struct {
	output OutputFormat
}

func NewStorageFormatter(output OutputFormat) *StorageFormatter {
	if output == "" {
		output = OutputTable
	}
	return &StorageFormatter{output: output}
}

type bucketView struct {
	Name       string    `json:"name" yaml:"name"`
	Provider   string    `json:"provider" yaml:"provider"`
	Location   string    `json:"location,omitempty" yaml:"location,omitempty"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	Versioning string    `json:"versioning,omitempty" yaml:"versioning,omitempty"`
	Policy     string    `json:"policy,omitempty" yaml:"policy,omitempty"`
	UsageBytes *int64    `json:"usageBytes,omitempty" yaml:"usageBytes,omitempty"`
}

type objectView struct {
	Key          string    `json:"key" yaml:"key"`
	Size         int64     `json:"size" yaml:"size"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
	ETag         string    `json:"etag,omitempty" yaml:"etag,omitempty"`
	ContentType  string    `json:"contentType,omitempty" yaml:"contentType,omitempty"`
}

type failureView struct {
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Error string `json:"error" yaml:"error"`
}

type transferView struct {
	Status    string        `json:"status" yaml:"status"`
	Succeeded []string      `json:"succeeded" yaml:"succeeded"`
	Failed    []failureView `json:"failed" yaml:"failed"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
}

type deleteView struct {
	Status  string        `json:"status" yaml:"status"`
	Deleted int           `json:"deleted" yaml:"deleted"`
	Batches int           `json:"batches" yaml:"batches"`
	Failed  []failureView `json:"failed" yaml:"failed"`
}

type presignView struct {
	URL       string    `json:"url" yaml:"url"`
	ExpiresAt time.Time `json:"expiresAt" yaml:"expiresAt"`
}

func (f *StorageFormatter) FormatBucketList(buckets []storage.Bucket) (string, error) {
	if f.output != OutputTable {
		views := make([]bucketView, len(buckets))
		for i, b := range buckets {
			views[i] = toBucketView(b)
		}
		return f.encode(views)
	}

	t := NewTable([]string{"BUCKET NAME", "PROVIDER", "LOCATION", "CREATED"})
	for _, bucket := range buckets {
		t.AddRow([]string{
			bucket.Name,
			string(bucket.Provider),
			orNA(bucket.Location),
			formatDate(bucket.CreatedAt),
		})
	}
	return t.String(), nil
}

func (f *StorageFormatter) FormatBucketDetails(bucket storage.Bucket) (string, error) {
	if f.output != OutputTable {
		return f.encode(toBucketView(bucket))
	}

	var sb strings.Builder
	sb.WriteString(FormatHeaderSection("Bucket: " + bucket.Name))
	sb.WriteString("\n\n")
	sb.WriteString(FormatSectionTitle("Overview"))
	sb.WriteString("\n")

	overview := NewTable([]string{"Parameter", "Value"})
	overview.AddRow([]string{"Provider", string(bucket.Provider)})
	overview.AddRow([]string{"Location / Region", orNA(bucket.Location)})
	overview.AddRow([]string{"Created On", formatTimestamp(bucket.CreatedAt)})
	overview.AddRow([]string{"Versioning", orNA(string(bucket.Versioning))})
	if bucket.UsageBytes != nil {
		overview.AddRow([]string{"Usage", humanize.IBytes(uint64(*bucket.UsageBytes))})
	}
	sb.WriteString(overview.String())
	sb.WriteString("\n\n")

	sb.WriteString(FormatSectionTitle("Policy"))
	sb.WriteString("\n")
	sb.WriteString(prettyJSON(bucket.Policy))
	sb.WriteString("\n")

	return sb.String(), nil
}

func (f *StorageFormatter) FormatObjectList(bucketName, prefix string, objects []storage.Object) (string, error) {
	if f.output != OutputTable {
		views := make([]objectView, len(objects))
		for i, o := range objects {
			views[i] = toObjectView(o)
		}
		return f.encode(views)
	}

	var total int64
	t := NewTable([]string{"KEY", "SIZE", "LAST MODIFIED"})
	for _, o := range objects {
		total += o.Size
		t.AddRow([]string{o.Key, humanize.IBytes(uint64(o.Size)), formatTimestamp(o.LastModified)})
	}

	location := bucketName
	if prefix != "" {
		location += "/" + prefix
	}
	summary := fmt.Sprintf("%s objects, %s in %s", humanize.Comma(int64(len(objects))), humanize.IBytes(uint64(total)), location)
	return t.String() + "\n" + summary, nil
}

func (f *StorageFormatter) FormatObjectDetails(object storage.Object) (string, error) {
	if f.output != OutputTable {
		return f.encode(toObjectView(object))
	}

	t := NewTable([]string{"Parameter", "Value"})
	t.AddRow([]string{"Key", object.Key})
	t.AddRow([]string{"Bucket", object.Bucket})
	t.AddRow([]string{"Size", fmt.Sprintf("%s (%s bytes)", humanize.IBytes(uint64(object.Size)), humanize.Comma(object.Size))})
	t.AddRow([]string{"Content Type", orNA(object.ContentType)})
	t.AddRow([]string{"ETag", orNA(object.ETag)})
	t.AddRow([]string{"Last Modified", formatTimestamp(object.LastModified)})
	return t.String(), nil
}

func (f *StorageFormatter) FormatTransferReport(report transfer.TransferReport) (string, error) {
	view := transferView{
		Status:    string(report.Status),
		Succeeded: report.Succeeded,
		Bytes:     report.Bytes,
	}
	for _, fl := range report.Failed {
		view.Failed = append(view.Failed, failureView{Path: fl.Path, Key: fl.Key, Error: fl.Err.Error()})
	}
	if f.output != OutputTable {
		return f.encode(view)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d transferred (%s), %d failed",
		view.Status, len(report.Succeeded), humanize.IBytes(uint64(report.Bytes)), len(report.Failed))
	if len(view.Failed) > 0 {
		t := NewTable([]string{"PATH", "KEY", "ERROR"})
		for _, fl := range view.Failed {
			t.AddRow([]string{orNA(fl.Path), orNA(fl.Key), fl.Error})
		}
		sb.WriteString("\n")
		sb.WriteString(t.String())
	}
	return sb.String(), nil
}

func (f *StorageFormatter) FormatDeleteReport(report transfer.DeleteReport) (string, error) {
	view := deleteView{
		Status:  string(report.Status),
		Deleted: report.Deleted,
		Batches: report.Batches,
	}
	for _, fl := range report.Failed {
		view.Failed = append(view.Failed, failureView{Key: fl.Key, Error: fl.Err.Error()})
	}
	if f.output != OutputTable {
		return f.encode(view)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s objects deleted in %d batches, %d failed",
		view.Status, humanize.Comma(int64(report.Deleted)), report.Batches, len(report.Failed))
	if len(view.Failed) > 0 {
		t := NewTable([]string{"KEY", "ERROR"})
		for _, fl := range view.Failed {
			t.AddRow([]string{fl.Key, fl.Error})
		}
		sb.WriteString("\n")
		sb.WriteString(t.String())
	}
	return sb.String(), nil
}

func (f *StorageFormatter) FormatPresignedURL(link storage.PresignedURL) (string, error) {
	if f.output != OutputTable {
		return f.encode(presignView{URL: link.URL, ExpiresAt: link.ExpiresAt})
	}
	return fmt.Sprintf("%s\nExpires: %s (%s)", link.URL, formatTimestamp(link.ExpiresAt), humanize.Time(link.ExpiresAt)), nil
}

func (f *StorageFormatter) encode(v any) (string, error) {
	switch f.output {
	case OutputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("error encoding JSON output: %w", err)
		}
		return string(data), nil
	case OutputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("error encoding YAML output: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		return "", fmt.Errorf("output format '%s' has no encoder", f.output)
	}
}

func toBucketView(b storage.Bucket) bucketView {
	return bucketView{
		Name:       b.Name,
		Provider:   string(b.Provider),
		Location:   b.Location,
		CreatedAt:  b.CreatedAt,
		Versioning: string(b.Versioning),
		Policy:     b.Policy,
		UsageBytes: b.UsageBytes,
	}
}

func toObjectView(o storage.Object) objectView {
	return objectView{
		Key:          o.Key,
		Size:         o.Size,
		LastModified: o.LastModified,
		ETag:         o.ETag,
		ContentType:  o.ContentType,
	}
}

func prettyJSON(doc string) string {
	if doc == "" {
		return "(none)"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(doc), "", "  "); err != nil {
		return doc
	}
	return buf.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC1123)
}

// Renders a settings map as sorted key = value lines
func FormatSettings(settings map[string]interface{}) string {
	lines := flattenSettings("", settings)
	t := NewTable([]string{"KEY", "VALUE"})
	for _, l := range lines {
		t.AddRow(l)
	}
	return t.String()
}

func flattenSettings(prefix string, settings map[string]interface{}) [][]string {
	var rows [][]string
	for _, k := range sortedKeys(settings) {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := settings[k].(type) {
		case map[string]interface{}:
			rows = append(rows, flattenSettings(key, v)...)
		default:
			rows = append(rows, []string{key, fmt.Sprint(v)})
		}
	}
	return rows
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
