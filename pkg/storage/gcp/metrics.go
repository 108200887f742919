// File: pkg/storage/gcp/metrics.go
package gcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"s3client/pkg/storage"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	// Storage metrics are sampled daily, so a shorter window often comes back empty
	metricTimeWindow = 72 * time.Hour
	totalBytesMetric = "storage.googleapis.com/storage/v2/total_bytes"
)

// Runs a ListTimeSeries request and drains the results
type timeSeriesQuery func(ctx context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error)

// The metric client is only dialled when usage is requested
func newMonitoringQuery(opts []option.ClientOption) timeSeriesQuery {
	return func(ctx context.Context, req *monitoringpb.ListTimeSeriesRequest) ([]*monitoringpb.TimeSeries, error) {
		client, err := monitoring.NewMetricClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create monitoring client: %w", err)
		}
		defer client.Close()

		var series []*monitoringpb.TimeSeries
		it := client.ListTimeSeries(ctx, req)
		for {
			ts, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return series, nil
			}
			if err != nil {
				return nil, fmt.Errorf("error getting metric data: %w", err)
			}
			series = append(series, ts)
		}
	}
}

// Returns the bytes stored in a bucket according to Cloud Monitoring
func (g *GCPStorage) BucketUsage(ctx context.Context, bucketName string) (int64, error) {
	g.logger.Debug("Fetching GCP bucket usage metric", "bucket", bucketName)

	end := g.now()
	series, err := g.queryUsage(ctx, usageRequest(g.projectID, bucketName, end.Add(-metricTimeWindow), end))
	if err != nil {
		return -1, fmt.Errorf("failed to query usage of %s: %w", bucketName, err)
	}

	for _, ts := range series {
		if ts.GetResource().GetLabels()["bucket_name"] != bucketName {
			continue
		}
		if points := ts.GetPoints(); len(points) > 0 {
			return extractUsageValue(points[0].GetValue()), nil
		}
	}
	return -1, fmt.Errorf("%w: no usage metrics for %s in the last %s", storage.ErrNotFound, bucketName, metricTimeWindow)
}

// Sums the mean of every series for the bucket over the whole window into a single point
func usageRequest(projectID, bucketName string, start, end time.Time) *monitoringpb.ListTimeSeriesRequest {
	return &monitoringpb.ListTimeSeriesRequest{
		Name:   "projects/" + projectID,
		Filter: fmt.Sprintf(`metric.type="%s" AND resource.labels.bucket_name="%s"`, totalBytesMetric, bucketName),
		Interval: &monitoringpb.TimeInterval{
			StartTime: timestamppb.New(start),
			EndTime:   timestamppb.New(end),
		},
		Aggregation: &monitoringpb.Aggregation{
			AlignmentPeriod:    durationpb.New(metricTimeWindow),
			PerSeriesAligner:   monitoringpb.Aggregation_ALIGN_MEAN,
			CrossSeriesReducer: monitoringpb.Aggregation_REDUCE_SUM,
			GroupByFields:      []string{"resource.labels.bucket_name"},
		},
		View: monitoringpb.ListTimeSeriesRequest_FULL,
	}
}

func extractUsageValue(value *monitoringpb.TypedValue) int64 {
	switch v := value.GetValue().(type) {
	case *monitoringpb.TypedValue_DoubleValue:
		return int64(math.Round(v.DoubleValue))
	case *monitoringpb.TypedValue_Int64Value:
		return v.Int64Value
	default:
		return 0
	}
}
