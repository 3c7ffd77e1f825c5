package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NoTumorClass is the predicted class the model emits when no tumor is detected.
const NoTumorClass = "notumor"

// Classes lists the labels the classifier is trained on, in output order.
var Classes = []string{"glioma", "meningioma", "pituitary", NoTumorClass}

// Result is the structured response of a completed analysis.
type Result struct {
	PredictedClass         string   `json:"predicted_class"`
	PredictedClassEnsemble string   `json:"predicted_class_ensemble,omitempty"`
	Confidence             float64  `json:"confidence"`
	Entropy                float64  `json:"entropy"`
	Variance               float64  `json:"variance"`
	NumCounterfactuals     int      `json:"num_counterfactuals,omitempty"`
	LimeExplanation        string   `json:"lime_explanation,omitempty"`
	Counterfactuals        []string `json:"counterfactuals,omitempty"`
}

// NoTumor reports whether the result carries the no-tumor sentinel class.
func (r *Result) NoTumor() bool {
	return r != nil && r.PredictedClass == NoTumorClass
}

// StatusError is returned when the endpoint answers with a non-success status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server error: %d", e.StatusCode)
}

// DecodeResult parses an endpoint payload.
func DecodeResult(r io.Reader) (*Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	if strings.TrimSpace(result.PredictedClass) == "" {
		return nil, errors.New("analysis response missing predicted_class")
	}
	return &result, nil
}
