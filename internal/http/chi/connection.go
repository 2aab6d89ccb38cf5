package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/marcelsud/pixbridge/adapter"
	"github.com/marcelsud/pixbridge/cache"
	"github.com/marcelsud/pixbridge/connection"
)

// pricesCacheKey is the cache key prices are kept under, suffixed with the requested symbols
const pricesCacheKey = "crypto_prices"

type connectionResponse struct {
	Online  bool   `json:"online"`
	Quality string `json:"quality"`
}

type connectionRequest struct {
	Online *bool `json:"online"`
}

type pricesResponse struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

// getConnection handles GET /v1/connection; it probes the network to rate the connection
func getConnection(monitor *connection.Monitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quality := monitor.Quality(r.Context())
		writeJSON(w, http.StatusOK, connectionResponse{
			Online:  monitor.IsOnline(),
			Quality: quality.String(),
		})
	})
}

// putConnection handles PUT /v1/connection, the platform's online/offline signal
func putConnection(monitor *connection.Monitor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cr connectionRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&cr); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		if cr.Online == nil {
			http.Error(w, "online is required", http.StatusBadRequest)
			return
		}

		monitor.SetOnline(*cr.Online)
		w.WriteHeader(http.StatusNoContent)
	})
}

// parseSymbols splits ?symbols=BTC,eth into a sorted, upper-cased, de-duplicated list
func parseSymbols(raw string) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// getPrices handles GET /v1/prices?symbols=BTC,ETH, falling back to cached prices when offline or failing
func getPrices(exchange *adapter.Exchange, store *cache.Store, monitor *connection.Monitor, ttl time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbols := parseSymbols(r.URL.Query().Get("symbols"))
		if len(symbols) == 0 {
			http.Error(w, "symbols is required", http.StatusBadRequest)
			return
		}

		fetch := func(ctx context.Context) (json.RawMessage, error) {
			return exchange.GetRealTimePrices(ctx, symbols)
		}

		if store == nil {
			data, err := fetch(r.Context())
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, pricesResponse{Source: cache.Live.String(), Data: data})
			return
		}

		key := pricesCacheKey + ":" + strings.Join(symbols, ",")
		data, source, err := store.Fallback(r.Context(), key, monitor.IsOnline(), ttl, fetch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pricesResponse{Source: source.String(), Data: data})
	})
}
