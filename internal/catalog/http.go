package catalog

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cesizen/cesizen/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// HTTPProvider reads the catalog from the CesiZen backend.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	url := p.baseURL + "/exercises/"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return decodeExercises(resp.StatusCode, body)
}

func (p *HTTPProvider) GetExercise(ctx context.Context, id int64) (*domain.Exercise, error) {
	exercises, err := p.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	return findExercise(exercises, id)
}

// wireExercise is an exercise as the backend serialises it. Durations are
// floats there ("5.0"); only whole seconds are accepted.
type wireExercise struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	DurationInspiration float64 `json:"duration_inspiration"`
	DurationApnea       float64 `json:"duration_apnea"`
	DurationExpiration  float64 `json:"duration_expiration"`
	NumberCycles        float64 `json:"number_cycles"`
}

func (w wireExercise) toDomain() (domain.Exercise, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"duration_inspiration", w.DurationInspiration},
		{"duration_apnea", w.DurationApnea},
		{"duration_expiration", w.DurationExpiration},
		{"number_cycles", w.NumberCycles},
	}
	for _, f := range fields {
		if f.value != math.Trunc(f.value) || math.IsInf(f.value, 0) {
			return domain.Exercise{}, errors.Errorf("exercise %d: %s must be a whole number, got %v", w.ID, f.name, f.value)
		}
	}

	return domain.Exercise{
		ID:                  w.ID,
		Name:                w.Name,
		DurationInspiration: int(w.DurationInspiration),
		DurationApnea:       int(w.DurationApnea),
		DurationExpiration:  int(w.DurationExpiration),
		NumberCycles:        int(w.NumberCycles),
	}, nil
}

// decodeExercises accepts a bare array or an {"exercises": [...]} envelope.
// A body that does not hold exercises is reported as a ServerError.
func decodeExercises(status int, body []byte) ([]domain.Exercise, error) {
	var wire []wireExercise

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, &ServerError{StatusCode: status, Message: "decode exercise list: " + err.Error()}
		}
	} else {
		var envelope struct {
			Exercises []wireExercise `json:"exercises"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, &ServerError{StatusCode: status, Message: "decode exercise envelope: " + err.Error()}
		}
		wire = envelope.Exercises
	}

	exercises := make([]domain.Exercise, 0, len(wire))
	for _, w := range wire {
		e, err := w.toDomain()
		if err != nil {
			return nil, &ServerError{StatusCode: status, Message: err.Error()}
		}
		exercises = append(exercises, e)
	}
	return exercises, nil
}

func errorMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || json.Unmarshal(data, &payload) != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if detail, ok := payload.Detail.(string); ok {
		return detail
	}
	return ""
}
