package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/presets"
)

/* HTTP layer DTOs for the systems API
 * Separate from domain entities to avoid leaking internal structure; secrets are never echoed back
 */

// maxBodyBytes bounds request bodies read by the API
const maxBodyBytes = 1 << 20

type configRequest struct {
	APIURL        string `json:"api_url"`
	APIKey        string `json:"api_key"`
	WebhookURL    string `json:"webhook_url"`
	WebhookSecret string `json:"webhook_secret"`
	TimeoutMS     int    `json:"timeout_ms"`
	MaxRetries    *int   `json:"max_retries"` // Default: 3
}

type systemRequest struct {
	Name   string        `json:"name"`
	Kind   string        `json:"kind"`
	Config configRequest `json:"config"`
	Active *bool         `json:"active"` // Default: true
}

type configResponse struct {
	APIURL        string `json:"api_url"`
	HasAPIKey     bool   `json:"has_api_key"`
	WebhookURL    string `json:"webhook_url,omitempty"`
	SignsWebhooks bool   `json:"signs_webhooks"`
	TimeoutMS     int64  `json:"timeout_ms"`
	MaxRetries    int    `json:"max_retries"`
}

type systemResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Kind   string         `json:"kind"`
	Config configResponse `json:"config"`
	Active bool           `json:"active"`
}

func (sr systemRequest) system() (integration.System, error) {
	kind := integration.API
	if sr.Kind != "" {
		if err := kind.UnmarshalText([]byte(sr.Kind)); err != nil {
			return integration.System{}, err
		}
	}

	maxRetries := integration.DefaultMaxRetries
	if sr.Config.MaxRetries != nil {
		maxRetries = *sr.Config.MaxRetries
	}

	active := true
	if sr.Active != nil {
		active = *sr.Active
	}

	system := integration.System{
		Name: sr.Name,
		Kind: kind,
		Config: integration.EndpointConfig{
			APIURL:        sr.Config.APIURL,
			APIKey:        sr.Config.APIKey,
			WebhookURL:    sr.Config.WebhookURL,
			WebhookSecret: sr.Config.WebhookSecret,
			Timeout:       time.Duration(sr.Config.TimeoutMS) * time.Millisecond,
			MaxRetries:    maxRetries,
		},
		Active: active,
	}
	return system, system.Validate()
}

func toSystemResponse(id string, s integration.System) systemResponse {
	return systemResponse{
		ID:   id,
		Name: s.Name,
		Kind: s.Kind.String(),
		Config: configResponse{
			APIURL:        s.Config.APIURL,
			HasAPIKey:     s.Config.APIKey != "",
			WebhookURL:    s.Config.WebhookURL,
			SignsWebhooks: s.Config.WebhookSecret != "",
			TimeoutMS:     s.Config.AttemptTimeout().Milliseconds(),
			MaxRetries:    s.Config.MaxRetries,
		},
		Active: s.Active,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps domain errors to status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *integration.NotFoundError
	var inactive *integration.InactiveError
	var statusErr *integration.HTTPStatusError
	var transportErr *integration.TransportError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound), errors.Is(err, presets.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &inactive):
		status = http.StatusConflict
	case errors.As(err, &statusErr), errors.As(err, &transportErr):
		status = http.StatusBadGateway
	case errors.Is(err, integration.ErrMissingAPIURL):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		logger := httplog.LogEntry(r.Context())
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	http.Error(w, err.Error(), status)
}

// getSystems handles GET /v1/systems
func getSystems(systems integration.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := systems.Entries()

		responses := make([]systemResponse, 0, len(entries))
		for _, e := range entries {
			responses = append(responses, toSystemResponse(e.ID, e.System))
		}

		writeJSON(w, http.StatusOK, responses)
	})
}

// getSystem handles GET /v1/systems/{id}
func getSystem(systems integration.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		system, ok := systems.Get(id)
		if !ok {
			writeError(w, r, &integration.NotFoundError{ID: id})
			return
		}
		writeJSON(w, http.StatusOK, toSystemResponse(id, system))
	})
}

// putSystem handles PUT /v1/systems/{id}; 201 when created, 200 when replaced
func putSystem(systems integration.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var sr systemRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&sr); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		system, err := sr.system()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		_, existed := systems.Get(id)
		if err := systems.Register(id, system); err != nil {
			writeError(w, r, err)
			return
		}

		status := http.StatusCreated
		if existed {
			status = http.StatusOK
		}
		writeJSON(w, status, toSystemResponse(id, system))
	})
}

// deleteSystem handles DELETE /v1/systems/{id}; unknown ids are not an error
func deleteSystem(systems integration.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		systems.Unregister(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
}

// readPayload returns nil for an empty body so the dispatch becomes a GET
func readPayload(r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	return json.RawMessage(body), nil
}

// postDispatch handles POST /v1/systems/{id}/dispatch
func postDispatch(systems integration.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := readPayload(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := systems.Dispatch(r.Context(), chi.URLParam(r, "id"), payload)
		if err != nil {
			writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result)
	})
}

// postWebhook handles POST /v1/systems/{id}/webhooks/{event}
func postWebhook(systems integration.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		event := chi.URLParam(r, "event")

		system, ok := systems.Get(id)
		if !ok {
			writeError(w, r, &integration.NotFoundError{ID: id})
			return
		}
		if system.Config.WebhookURL == "" {
			http.Error(w, fmt.Sprintf("system %s has no webhook_url", id), http.StatusUnprocessableEntity)
			return
		}

		data, err := readPayload(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		systems.SendWebhook(r.Context(), id, event, data)
		w.WriteHeader(http.StatusAccepted)
	})
}
