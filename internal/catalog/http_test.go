package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesizen/cesizen/internal/catalog"
	"github.com/cesizen/cesizen/internal/domain"
)

func newBackend(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exercises/" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const exerciseJSON = `{"id": 1, "name": "Respiration 748", "duration_inspiration": 7, "duration_apnea": 4, "duration_expiration": 8, "number_cycles": 15}`

func TestHTTPProvider_ListExercises(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare array", body: `[` + exerciseJSON + `]`},
		{name: "envelope", body: `{"exercises": [` + exerciseJSON + `]}`},
		{name: "float durations", body: `[{"id": 1, "name": "Respiration 748", "duration_inspiration": 7.0, "duration_apnea": 4.0, "duration_expiration": 8.0, "number_cycles": 15}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, http.StatusOK, tt.body)
			p := catalog.NewHTTPProvider(srv.URL+"/", time.Second)

			got, err := p.ListExercises(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, domain.Exercise{
				ID:                  1,
				Name:                "Respiration 748",
				DurationInspiration: 7,
				DurationApnea:       4,
				DurationExpiration:  8,
				NumberCycles:        15,
			}, got[0])
		})
	}
}

func TestHTTPProvider_ServerError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "message field", body: `{"message": "boom"}`, message: "boom"},
		{name: "detail field", body: `{"detail": "Liste des exercises non trouvée"}`, message: "Liste des exercises non trouvée"},
		{name: "no json", body: `oops`, message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, http.StatusNotFound, tt.body)
			p := catalog.NewHTTPProvider(srv.URL, time.Second)

			_, err := p.ListExercises(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)

			var serverErr *catalog.ServerError
			require.True(t, errors.As(err, &serverErr))
			assert.Equal(t, http.StatusNotFound, serverErr.StatusCode)
			assert.Equal(t, tt.message, serverErr.Message)
		})
	}
}

func TestHTTPProvider_FloatBody(t *testing.T) {
	body := `[{"id": 2, "name": "Respiration 505", "duration_inspiration": 5.0, "duration_apnea": 0.0, "duration_expiration": 5.0, "number_cycles": 30}]`
	srv := newBackend(t, http.StatusOK, body)
	p := catalog.NewHTTPProvider(srv.URL, time.Second)

	got, err := p.ListExercises(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Exercise{
		ID:                  2,
		Name:                "Respiration 505",
		DurationInspiration: 5,
		DurationApnea:       0,
		DurationExpiration:  5,
		NumberCycles:        30,
	}, got[0])
	assert.NoError(t, got[0].Validate())
}

func TestHTTPProvider_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "fractional duration", body: `[{"id": 3, "name": "x", "duration_inspiration": 4.5, "duration_apnea": 0, "duration_expiration": 5, "number_cycles": 3}]`},
		{name: "fractional cycles", body: `[{"id": 3, "name": "x", "duration_inspiration": 4, "duration_apnea": 0, "duration_expiration": 5, "number_cycles": 2.5}]`},
		{name: "not json", body: `<html>`},
		{name: "wrong type", body: `[{"id": 3, "duration_inspiration": "four"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, http.StatusOK, tt.body)
			p := catalog.NewHTTPProvider(srv.URL, time.Second)

			_, err := p.ListExercises(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)

			var serverErr *catalog.ServerError
			require.True(t, errors.As(err, &serverErr))
			assert.Equal(t, http.StatusOK, serverErr.StatusCode)
		})
	}
}

func TestHTTPProvider_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := catalog.NewHTTPProvider(url, time.Second)
	_, err := p.ListExercises(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)

	var netErr *catalog.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestHTTPProvider_GetExercise(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `[`+exerciseJSON+`]`)
	p := catalog.NewHTTPProvider(srv.URL, time.Second)

	e, err := p.GetExercise(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Respiration 748", e.Name)

	_, err = p.GetExercise(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)
}
