package verification

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseVerdict reads {"match","confidence","reason"} out of a model reply that may be
// fenced in markdown or wrapped in conversational text.
func parseVerdict(content string) (Verdict, error) {
	body := stripFences(content)

	raw, err := decodeObject(body)
	if err != nil || raw == nil {
		start := strings.Index(body, "{")
		end := strings.LastIndex(body, "}")
		if start < 0 || end <= start {
			return Verdict{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedReply)
		}
		raw, err = decodeObject(body[start : end+1])
		if err != nil || raw == nil {
			return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
		}
	}

	fields := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		fields[strings.ToLower(strings.TrimSpace(k))] = v
	}

	reason, _ := fields["reason"].(string)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReason
	}

	return Verdict{
		IsMatch:    asBool(fields["match"]),
		Confidence: asConfidence(fields["confidence"]),
		Reason:     reason,
	}, nil
}

// decodeObject keeps numbers as json.Number so "1.0" and "1" stay distinguishable.
func decodeObject(s string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if i := strings.Index(content, "\n"); i >= 0 {
		content = content[i+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1", "match":
			return true
		}
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	}
	return false
}

// asConfidence normalizes to an integer percentage. Fractions in (0,1) are read as
// probabilities, and so is a fractional literal of exactly 1 ("1.0").
func asConfidence(v interface{}) int {
	var literal string
	switch c := v.(type) {
	case json.Number:
		literal = c.String()
	case float64:
		literal = strconv.FormatFloat(c, 'f', -1, 64)
	case string:
		literal = strings.TrimSuffix(strings.TrimSpace(c), "%")
	default:
		return 0
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	if f > 0 && (f < 1 || (f == 1 && strings.ContainsAny(literal, ".eE"))) {
		f *= 100
	}
	return clampConfidence(int(math.Round(math.Max(-1, math.Min(f, 101)))))
}
