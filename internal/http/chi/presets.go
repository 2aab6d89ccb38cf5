package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/presets"
)

type presetResponse struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	APIURL     string `json:"api_url"`
	TimeoutMS  int64  `json:"timeout_ms"`
	MaxRetries int    `json:"max_retries"`
}

type setupRequest struct {
	APIKey string `json:"api_key"`
}

// getPresets handles GET /v1/presets
func getPresets(loader *presets.Loader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all := loader.List()

		responses := make([]presetResponse, 0, len(all))
		for _, p := range all {
			responses = append(responses, presetResponse{
				Key:        p.Key,
				Name:       p.Name,
				Kind:       p.Kind.String(),
				APIURL:     p.APIURL,
				TimeoutMS:  p.Timeout.Milliseconds(),
				MaxRetries: p.MaxRetries,
			})
		}

		writeJSON(w, http.StatusOK, responses)
	})
}

// postPresetSetup handles POST /v1/presets/{name}/setup
func postPresetSetup(loader *presets.Loader, systems integration.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var sr setupRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&sr); err != nil && err != io.EOF {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		system, err := loader.QuickSetup(systems, name, sr.APIKey)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSystemResponse(name, system))
	})
}
