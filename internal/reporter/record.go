package reporter

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Metric type names carried in Record.Type.
const (
	TypeCounter   = "counter"
	TypeGauge     = "gauge"
	TypeHistogram = "histogram"
	TypeSummary   = "summary"
	TypeUntyped   = "untyped"
)

// Record is a single metric sample published to the metrics topic.
type Record struct {
	Reporter    string             `json:"reporter"`
	Name        string             `json:"name"`
	Type        string             `json:"type"`
	Help        string             `json:"help,omitempty"`
	Labels      map[string]string  `json:"labels,omitempty"`
	Value       float64            `json:"value"`
	Count       uint64             `json:"count,omitempty"`
	Sum         float64            `json:"sum,omitempty"`
	Buckets     map[string]uint64  `json:"buckets,omitempty"`
	Quantiles   map[string]float64 `json:"quantiles,omitempty"`
	TimestampMs int64              `json:"timestamp_ms"`
}

// Key identifies the series a record belongs to, e.g.
// broker0.broker_queue_depth{queue="request"}.
func (r Record) Key() string {
	var b strings.Builder
	b.WriteString(r.Reporter)
	b.WriteByte('.')
	b.WriteString(r.Name)
	if len(r.Labels) > 0 {
		names := make([]string, 0, len(r.Labels))
		for n := range r.Labels {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteByte('{')
		for i, n := range names {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(n)
			b.WriteString(`="`)
			b.WriteString(r.Labels[n])
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}
	return b.String()
}

// ToRecords flattens gathered metric families into records. Samples with
// non-finite values are dropped since they cannot be serialized.
func ToRecords(reporter string, families []*dto.MetricFamily, now time.Time) []Record {
	var records []Record
	for _, family := range families {
		for _, m := range family.GetMetric() {
			rec := Record{
				Reporter:    reporter,
				Name:        family.GetName(),
				Help:        family.GetHelp(),
				Labels:      labels(m.GetLabel()),
				TimestampMs: now.UnixMilli(),
			}
			if m.TimestampMs != nil {
				rec.TimestampMs = m.GetTimestampMs()
			}

			switch family.GetType() {
			case dto.MetricType_COUNTER:
				rec.Type = TypeCounter
				rec.Value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				rec.Type = TypeGauge
				rec.Value = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
				h := m.GetHistogram()
				rec.Type = TypeHistogram
				rec.Count = h.GetSampleCount()
				rec.Sum = h.GetSampleSum()
				rec.Value = mean(rec.Sum, rec.Count)
				rec.Buckets = make(map[string]uint64, len(h.GetBucket()))
				for _, bucket := range h.GetBucket() {
					rec.Buckets[formatBound(bucket.GetUpperBound())] = bucket.GetCumulativeCount()
				}
			case dto.MetricType_SUMMARY:
				s := m.GetSummary()
				rec.Type = TypeSummary
				rec.Count = s.GetSampleCount()
				rec.Sum = s.GetSampleSum()
				rec.Value = mean(rec.Sum, rec.Count)
				for _, q := range s.GetQuantile() {
					if !finite(q.GetValue()) {
						continue
					}
					if rec.Quantiles == nil {
						rec.Quantiles = make(map[string]float64)
					}
					rec.Quantiles[formatBound(q.GetQuantile())] = q.GetValue()
				}
			default:
				rec.Type = TypeUntyped
				rec.Value = m.GetUntyped().GetValue()
			}

			if !finite(rec.Value) || !finite(rec.Sum) {
				continue
			}
			records = append(records, rec)
		}
	}
	return records
}

func labels(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, lp := range pairs {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func mean(sum float64, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
