package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// mockCloudWatchClient captures PutMetricData inputs.
type mockCloudWatchClient struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatchClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecordPublishedEmitsMetric(t *testing.T) {
	client := &mockCloudWatchClient{}
	metrics := NewCloudWatchMetrics(client, nil)

	metrics.RecordPublished(context.Background(), "disasters", 7)

	if len(client.inputs) != 1 {
		t.Fatalf("emitted %d metrics, want 1", len(client.inputs))
	}
	input := client.inputs[0]
	if aws.ToString(input.Namespace) != MetricNamespace {
		t.Errorf("namespace = %q", aws.ToString(input.Namespace))
	}
	datum := input.MetricData[0]
	if aws.ToString(datum.MetricName) != MetricRecordsPublished {
		t.Errorf("metric name = %q", aws.ToString(datum.MetricName))
	}
	if aws.ToFloat64(datum.Value) != 7 {
		t.Errorf("value = %v, want 7", aws.ToFloat64(datum.Value))
	}
	if aws.ToString(datum.Dimensions[0].Value) != "disasters" {
		t.Errorf("pipeline dimension = %q", aws.ToString(datum.Dimensions[0].Value))
	}
}

func TestRecordWatermarkMissEmitsCountOfOne(t *testing.T) {
	client := &mockCloudWatchClient{}
	metrics := NewCloudWatchMetrics(client, nil)

	metrics.RecordWatermarkMiss(context.Background(), "news")

	datum := client.inputs[0].MetricData[0]
	if aws.ToString(datum.MetricName) != MetricWatermarkMiss {
		t.Errorf("metric name = %q", aws.ToString(datum.MetricName))
	}
	if aws.ToFloat64(datum.Value) != 1 {
		t.Errorf("value = %v, want 1", aws.ToFloat64(datum.Value))
	}
}

func TestEmissionFailureIsSwallowed(t *testing.T) {
	client := &mockCloudWatchClient{err: errors.New("Throttling")}
	metrics := NewCloudWatchMetrics(client, nil)

	// Must not panic or propagate.
	metrics.RecordFetched(context.Background(), "disasters", 3)
	metrics.RecordPublishFailure(context.Background(), "disasters")
}
