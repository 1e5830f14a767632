// Package api provides the HTTP surface for the price oracle: the
// convenience JSON endpoints, the Chainlink-style envelope, the rental
// sub-API, and optional WebSocket streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/metrics"
	"hwp.dev/oracle/pkg/server/aggregator"
	"hwp.dev/oracle/pkg/server/history"
	"hwp.dev/oracle/pkg/server/rental"
	"hwp.dev/oracle/pkg/server/sources"
)

// Server is the HTTP API server wrapping the aggregator, the rental
// aggregator/cache, and the history store.
type Server struct {
	addr        string
	corsOrigins []string
	scraperAPI  bool
	aggregator  *aggregator.Aggregator
	rentalAgg   *rental.Aggregator
	rentalCache *rental.Cache
	history     history.Store
	rentalHist  history.Store
	server      *http.Server
	logger      *logging.Logger
	wsServer    *WebSocketServer
}

// Config bundles the dependencies NewServer needs.
type Config struct {
	Addr        string
	CORSOrigins []string
	ScraperAPI  bool
	Aggregator  *aggregator.Aggregator
	RentalAgg   *rental.Aggregator
	RentalTTL   time.Duration
	History     history.Store
	RentalHist  history.Store
	Logger      *logging.Logger
}

// NewServer builds an HTTP API server.
func NewServer(cfg Config) *Server {
	return &Server{
		addr:        cfg.Addr,
		corsOrigins: cfg.CORSOrigins,
		scraperAPI:  cfg.ScraperAPI,
		aggregator:  cfg.Aggregator,
		rentalAgg:   cfg.RentalAgg,
		rentalCache: rental.NewCache(cfg.RentalTTL),
		history:     cfg.History,
		rentalHist:  cfg.RentalHist,
		logger:      cfg.Logger,
	}
}

// SetWebSocketServer attaches an optional streaming server whose updates
// are driven by this server's refresh cycle.
func (s *Server) SetWebSocketServer(ws *WebSocketServer) {
	s.wsServer = ws
}

// BroadcastPrices pushes a round's fused prices to any attached WebSocket
// server. Called by the scheduler after each hardware tick, and by
// POST /refresh. A no-op when no WebSocket server is attached.
func (s *Server) BroadcastPrices(prices map[string]domain.AggregatedPrice) {
	if s.wsServer != nil {
		s.wsServer.SendUpdate(prices)
	}
}

// Start builds the route table and serves until the process receives a
// shutdown signal; callers invoke Stop to unwind it.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.withCORS(s.handleHealth))
	mux.HandleFunc("/refresh", s.withCORS(s.handleRefresh))
	mux.HandleFunc("/prices", s.withCORS(s.handlePricesRoute))
	mux.HandleFunc("/prices/history", s.withCORS(s.handlePricesHistory))
	mux.HandleFunc("/price/", s.withCORS(s.handlePriceByID))
	mux.HandleFunc("/price", s.withCORS(s.handleEnvelopePrice))
	mux.HandleFunc("/rental/prices/", s.withCORS(s.handleRentalPriceByType))
	mux.HandleFunc("/rental/prices", s.withCORS(s.handleRentalPrices))
	mux.HandleFunc("/rental/offers/", s.withCORS(s.handleRentalOffers))
	mux.HandleFunc("/rental/history/stats", s.withCORS(s.handleRentalHistoryStats))
	mux.HandleFunc("/rental/history", s.withCORS(s.handleRentalHistory))

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server, allowing in-flight responses to
// complete.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		origin := r.Header.Get("Origin")
		if s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r.WithContext(withRequestID(r.Context(), requestID)))
	}
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		s.sendJSON(w, http.StatusOK, map[string]interface{}{
			"status":             "ok",
			"timestamp":          domain.NowMillis(),
			"assets":             catalog.HardwareIDs(),
			"scraperApi":         s.scraperAPI,
			"registeredAdapters": sources.List(),
		})
		return http.StatusOK, nil
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		if r.Method != http.MethodPost {
			s.sendError(w, http.StatusMethodNotAllowed, "method not allowed", "")
			return http.StatusMethodNotAllowed, nil
		}

		updated := s.aggregator.UpdateAllPrices(r.Context())
		assets := make([]map[string]interface{}, 0, len(updated))
		for assetID, price := range updated {
			assets = append(assets, map[string]interface{}{
				"assetId": assetID,
				"price":   price.Price,
				"sources": price.Sources,
			})
			s.appendHardwareHistory(price)
		}

		s.BroadcastPrices(updated)

		s.sendJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"updated": len(updated),
			"assets":  assets,
		})
		return http.StatusOK, nil
	})
}

// handlePricesRoute dispatches GET /prices (convenience JSON) and POST
// /prices (envelope) on the same path.
func (s *Server) handlePricesRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handleEnvelopePrices(w, r)
		return
	}
	s.handlePrices(w, r)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		all := s.aggregator.GetAllPrices()
		prices := make(map[string]interface{}, len(all))
		for assetID, p := range all {
			prices[assetID] = priceView(p)
		}
		s.sendJSON(w, http.StatusOK, map[string]interface{}{
			"prices":    prices,
			"timestamp": domain.NowMillis(),
		})
		return http.StatusOK, nil
	})
}

func (s *Server) handlePriceByID(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		assetID := strings.TrimPrefix(r.URL.Path, "/price/")
		if !catalog.IsHardwareAsset(assetID) {
			s.sendError(w, http.StatusBadRequest, "unknown asset", assetID)
			return http.StatusBadRequest, nil
		}

		price, ok := s.aggregator.GetPrice(assetID)
		if !ok {
			s.sendError(w, http.StatusNotFound, "no price available", assetID)
			return http.StatusNotFound, nil
		}

		s.sendJSON(w, http.StatusOK, price)
		return http.StatusOK, nil
	})
}

func (s *Server) handlePricesHistory(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		q := parseRangeQuery(r, 1000)
		records, err := s.history.QueryRange(r.Context(), q)
		if errors.Is(err, history.ErrNotConfigured) {
			s.sendJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"history": []domain.HistoryRecord{}})
			return http.StatusServiceUnavailable, nil
		}
		if err != nil {
			s.sendError(w, http.StatusInternalServerError, "history query failed", err.Error())
			return http.StatusInternalServerError, nil
		}
		s.sendJSON(w, http.StatusOK, map[string]interface{}{"history": records})
		return http.StatusOK, nil
	})
}

func (s *Server) appendHardwareHistory(price domain.AggregatedPrice) {
	if !s.history.Configured() {
		return
	}
	go func() {
		record := domain.HistoryRecord{
			AssetID:     price.AssetID,
			Timestamp:   price.Timestamp,
			Price:       price.Price,
			TWAP:        price.TWAP,
			SourceCount: price.SourceCount,
		}
		if err := s.history.InsertHardware(context.Background(), record); err != nil {
			s.logger.Warn("failed to append hardware history", "assetId", price.AssetID, "error", err.Error())
		}
	}()
}

func priceView(p domain.AggregatedPrice) map[string]interface{} {
	return map[string]interface{}{
		"price":       p.Price,
		"twap":        p.TWAP,
		"priceInt":    p.PriceInt,
		"sourceCount": p.SourceCount,
		"timestamp":   p.Timestamp,
		"currency":    p.Currency,
		"sources":     p.Sources,
	}
}

func parseRangeQuery(r *http.Request, defaultLimit int) history.RangeQuery {
	q := r.URL.Query()
	query := history.RangeQuery{SeriesKey: q.Get("seriesKey"), Limit: defaultLimit}
	if q.Get("assetId") != "" {
		query.SeriesKey = q.Get("assetId")
	}
	if v, err := strconv.ParseInt(q.Get("startTime"), 10, 64); err == nil {
		query.StartMs = v
	}
	if v, err := strconv.ParseInt(q.Get("endTime"), 10, 64); err == nil {
		query.EndMs = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		query.Limit = v
	}
	return query
}

func (s *Server) timed(r *http.Request, handler func() (int, error)) {
	start := time.Now()
	status, err := handler()
	if err != nil {
		s.logger.Error("handler error", "path", r.URL.Path, "requestId", requestIDFrom(r.Context()), "error", err.Error())
	}
	metrics.RecordHTTPRequest(r.URL.Path, strconv.Itoa(status), time.Since(start))
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err.Error())
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, errMsg, detail string) {
	s.sendJSON(w, status, errorBody{Error: errMsg, Message: detail})
}
