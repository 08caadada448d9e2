package scrape

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cuemby/beacon/pkg/timeseries"
)

// MetricType is the exposition-format TYPE a family is declared or
// inferred as.
type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// InferType derives a family's type from its sanitized name when no
// explicit declaration is registered: _bucket/_sum suffixes imply
// histogram, _total/_count/_bytes/_seconds imply counter, anything
// else is a gauge.
func InferType(name string) MetricType {
	switch {
	case strings.HasSuffix(name, "_bucket"), strings.HasSuffix(name, "_sum"):
		return TypeHistogram
	case strings.HasSuffix(name, "_total"), strings.HasSuffix(name, "_count"),
		strings.HasSuffix(name, "_bytes"), strings.HasSuffix(name, "_seconds"):
		return TypeCounter
	default:
		return TypeGauge
	}
}

// Formatter accumulates optional per-family TYPE/HELP overrides and
// renders MetricSample slices into the text exposition format.
type Formatter struct {
	declaredTypes map[string]MetricType
	declaredHelp  map[string]string
}

func NewFormatter() *Formatter {
	return &Formatter{
		declaredTypes: make(map[string]MetricType),
		declaredHelp:  make(map[string]string),
	}
}

// DeclareType overrides the inferred type for a (pre-sanitization)
// metric name.
func (f *Formatter) DeclareType(name string, t MetricType) {
	f.declaredTypes[SanitizeMetricName(name)] = t
}

// DeclareHelp overrides the default "Metric <name>" HELP text for a
// (pre-sanitization) metric name.
func (f *Formatter) DeclareHelp(name, help string) {
	f.declaredHelp[SanitizeMetricName(name)] = help
}

type familyLine struct {
	labelTuple string
	rendered   string
}

// Format renders samples into the exposition text. Samples carrying a
// string value rather than a numeric one are skipped: the exposition
// format has no slot for a non-numeric sample value. Families are
// emitted sorted by sanitized name; within a family, lines are sorted
// by their canonical label tuple, making the output byte-stable for a
// fixed input set.
func (f *Formatter) Format(samples []timeseries.MetricSample) string {
	families := make(map[string][]familyLine)

	for _, s := range samples {
		if s.IsString {
			continue
		}
		name := SanitizeMetricName(s.Name)
		tuple, labelText := formatLabels(s.Labels)
		line := fmt.Sprintf("%s%s %s %d", name, labelText, formatValue(s.Value), s.Timestamp.UnixMilli())
		families[name] = append(families[name], familyLine{labelTuple: tuple, rendered: line})
	}

	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		lines := families[name]
		sort.Slice(lines, func(i, j int) bool { return lines[i].labelTuple < lines[j].labelTuple })

		metricType, ok := f.declaredTypes[name]
		if !ok {
			metricType = InferType(name)
		}
		help, ok := f.declaredHelp[name]
		if !ok {
			help = "Metric " + name
		}

		fmt.Fprintf(&b, "# TYPE %s %s\n", name, metricType)
		fmt.Fprintf(&b, "# HELP %s %s\n", name, help)
		for _, line := range lines {
			b.WriteString(line.rendered)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// formatLabels returns the canonical sort tuple (labels in key order,
// unescaped, used only for ordering lines) and the rendered
// `{k="v",...}` segment (empty string if there are no labels).
func formatLabels(labels map[string]string) (string, string) {
	if len(labels) == 0 {
		return "", ""
	}
	sanitized := make(map[string]string, len(labels))
	for k, v := range labels {
		sanitized[SanitizeLabelName(k)] = v
	}
	keys := make([]string, 0, len(sanitized))
	for k := range sanitized {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tuple strings.Builder
	var rendered strings.Builder
	rendered.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			rendered.WriteByte(',')
			tuple.WriteByte(',')
		}
		v := sanitized[k]
		rendered.WriteString(k)
		rendered.WriteString(`="`)
		rendered.WriteString(escapeLabelValue(v))
		rendered.WriteString(`"`)
		tuple.WriteString(k)
		tuple.WriteByte('=')
		tuple.WriteString(v)
	}
	rendered.WriteByte('}')
	return tuple.String(), rendered.String()
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabelValue(v string) string {
	return labelEscaper.Replace(v)
}

func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
