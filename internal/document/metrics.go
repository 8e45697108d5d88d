// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// SYSTEM METRICS
// =============================================================================

// ChartType selects how a metrics set is charted.
type ChartType string

const (
	ChartPie ChartType = "pie"
	ChartBar ChartType = "bar"
)

// DataPoint is one named value in a chart.
type DataPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Fill  string  `json:"fill,omitempty"`
}

// UnmarshalJSON accepts a value written as a number, a numeric string such
// as "150" or "12.5%", or null. A string that is not a number reads as 0
// so one sloppy point does not drop the whole chart.
func (d *DataPoint) UnmarshalJSON(data []byte) error {
	type plain DataPoint
	var aux struct {
		plain
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = DataPoint(aux.plain)
	d.Value = lenientNumber(aux.Value)
	return nil
}

func lenientNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}

// SystemMetrics is the telemetry a report attaches in its trailing data
// block. AllMetrics holds every sibling chart when several were supplied,
// including the primary one at index 0.
type SystemMetrics struct {
	Title      string            `json:"title"`
	Type       ChartType         `json:"type"`
	Unit       string            `json:"unit,omitempty"`
	Data       []DataPoint       `json:"data"`
	AllMetrics []SystemMetrics   `json:"allMetrics,omitempty"`
	Summary    map[string]string `json:"summary,omitempty"`
}

// Total returns the sum of all data point values.
func (m SystemMetrics) Total() float64 {
	var total float64
	for _, d := range m.Data {
		total += d.Value
	}
	return total
}

// metricsEnvelope accepts both supported shapes in one decode.
type metricsEnvelope struct {
	Metrics []SystemMetrics `json:"metrics"`
	Summary map[string]any  `json:"summary"`

	Title string      `json:"title"`
	Type  ChartType   `json:"type"`
	Unit  string      `json:"unit"`
	Data  []DataPoint `json:"data"`
}

// ExtractMetrics parses the last ```json block of finished text. It returns
// nil with no error when there is no data block or the block has neither
// a metrics array nor a data array. A malformed block returns nil and the
// parse error so the caller can log it; rendering must continue either way.
func ExtractMetrics(text string) (*SystemMetrics, error) {
	body, ok := lastDataBlock(text)
	if !ok {
		return nil, nil
	}

	var env metricsEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("failed to parse telemetry block: %w", err)
	}

	switch {
	case env.Metrics != nil:
		if len(env.Metrics) == 0 {
			return nil, nil
		}
		primary := env.Metrics[0]
		primary.AllMetrics = env.Metrics
		primary.Summary = stringifySummary(env.Summary)
		return normalizeMetrics(primary), nil

	case env.Data != nil:
		m := SystemMetrics{
			Title:   env.Title,
			Type:    env.Type,
			Unit:    env.Unit,
			Data:    env.Data,
			Summary: stringifySummary(env.Summary),
		}
		return normalizeMetrics(m), nil

	default:
		return nil, nil
	}
}

// lastDataBlock returns the body of the last closed fence tagged json.
func lastDataBlock(text string) (string, bool) {
	var body string
	found := false
	for _, f := range findFences(text) {
		if f.lang == "json" && !f.open {
			body = strings.TrimSpace(f.body)
			found = true
		}
	}
	return body, found
}

func normalizeMetrics(m SystemMetrics) *SystemMetrics {
	if m.Type != ChartPie && m.Type != ChartBar {
		m.Type = ChartBar
	}
	for i := range m.AllMetrics {
		if t := m.AllMetrics[i].Type; t != ChartPie && t != ChartBar {
			m.AllMetrics[i].Type = ChartBar
		}
	}
	return &m
}

// stringifySummary keeps summary values displayable even when the
// generator emitted numbers instead of strings.
func stringifySummary(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
