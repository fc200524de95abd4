// Package metrics emits custom metrics in the AWS CloudWatch Embedded
// Metrics Format (EMF). Metrics are written as one structured JSON line to
// stdout where CloudWatch extracts them automatically: no API calls, no
// added latency, no cost beyond log ingestion.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// metricDef names a metric and its unit in the _aws directive.
type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

// emfDirective is the _aws metadata block required by EMF.
type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

// cwMetric defines a namespace, its dimensions, and its metric definitions.
type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder accumulates dimensions, metrics, and properties for one EMF
// flush. Not safe for concurrent use; create one per operation.
type Recorder struct {
	namespace  string
	out        io.Writer
	dimensions map[string]string
	metrics    []metricDef
	values     map[string]float64
	properties map[string]any
}

var (
	// functionName is cached from AWS_LAMBDA_FUNCTION_NAME at first use.
	functionName string
	initOnce     sync.Once
)

// New creates an EMF Recorder writing to stdout with the given CloudWatch
// namespace. The FunctionName dimension is added automatically when running
// on Lambda.
func New(namespace string) *Recorder {
	return NewWithWriter(namespace, os.Stdout)
}

// NewWithWriter creates a Recorder with an explicit output, for tests.
func NewWithWriter(namespace string, out io.Writer) *Recorder {
	initOnce.Do(func() {
		functionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	})
	r := &Recorder{
		namespace:  namespace,
		out:        out,
		dimensions: make(map[string]string),
		values:     make(map[string]float64),
		properties: make(map[string]any),
	}
	if functionName != "" {
		r.dimensions["FunctionName"] = functionName
	}
	return r
}

// Dimension adds a dimension key-value pair. Dimensions are indexed in
// CloudWatch and appear as filterable attributes on the metric.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named metric value with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	if _, exists := r.values[name]; !exists {
		r.metrics = append(r.metrics, metricDef{Name: name, Unit: unit})
	}
	r.values[name] = value
	return r
}

// Count is a convenience for recording a count metric (value = 1).
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a non-metric field to the EMF document. Properties are
// searchable in CloudWatch Logs Insights but create no metric (no cost).
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush serializes the EMF document as a single JSON line. After flushing,
// the Recorder should not be reused.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}

	doc := make(map[string]any, len(r.dimensions)+len(r.values)+len(r.properties)+1)
	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    r.metrics,
		}},
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	for k, v := range r.properties {
		doc[k] = v
	}

	line, err := json.Marshal(doc)
	if err != nil {
		// EMF is best-effort; a marshal failure must never break processing.
		fmt.Fprintf(os.Stderr, "metrics: failed to marshal EMF document: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, string(line))
}
