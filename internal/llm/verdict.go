package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Verdict is the structured judgment result for one artifact.
type Verdict struct {
	Confidence  float64 `json:"confidence"`
	RowNumber   *int    `json:"row_number"`
	Date        string  `json:"date"`
	Description string  `json:"description"`

	// raw keeps every key the model returned so the serialized verdict is a
	// faithful copy, not a lossy re-projection through the struct.
	raw map[string]any
}

// Accepted reports whether the verdict clears the acceptance gate:
// confidence at or above the threshold AND a non-null row reference.
func (v Verdict) Accepted(threshold float64) bool {
	return v.Confidence >= threshold && v.RowNumber != nil
}

// MarshalPretty serializes the full verdict (including any extra keys the
// model returned) as indented UTF-8 JSON with non-ASCII preserved.
func (v Verdict) MarshalPretty() ([]byte, error) {
	var src any = v.raw
	if v.raw == nil {
		src = v
	}
	buf, err := marshalNoEscape(src)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict: %w", err)
	}
	return buf, nil
}

// ParseVerdict strips optional markdown fences from a judgment response,
// validates the JSON against the verdict schema and decodes it.
func ParseVerdict(response string) (Verdict, error) {
	cleaned := []byte(StripMarkdownFences(response))

	if err := ValidateJSONAgainstSchema(BuildVerdictJSONSchema(), cleaned); err != nil {
		return Verdict{}, err
	}

	var v Verdict
	if err := json.Unmarshal(cleaned, &v); err != nil {
		return Verdict{}, fmt.Errorf("unmarshal verdict: %w", err)
	}
	if err := json.Unmarshal(cleaned, &v.raw); err != nil {
		return Verdict{}, fmt.Errorf("unmarshal verdict map: %w", err)
	}
	return v, nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
