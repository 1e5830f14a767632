package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/server/history"
)

// handleRentalPrices implements GET /rental/prices: a 60-second TTL cache
// over every GPU type's fused stats.
func (s *Server) handleRentalPrices(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		types := catalog.RentalIDs()
		prices := make(map[string]interface{}, len(types))
		cached := true

		for _, gpuType := range types {
			round, hit := s.rentalCache.Get(gpuType)
			if !hit {
				cached = false
				var err error
				round, err = s.rentalAgg.UpdatePrice(r.Context(), gpuType)
				if err != nil {
					continue
				}
				s.rentalCache.Set(gpuType, round)
				s.appendRentalHistory(round.Stats)
			}
			prices[gpuType] = map[string]interface{}{
				"stats":       round.Stats,
				"sourceClass": round.SourceClass,
			}
		}

		s.sendJSON(w, http.StatusOK, map[string]interface{}{
			"prices":    prices,
			"cached":    cached,
			"timestamp": domain.NowMillis(),
		})
		return http.StatusOK, nil
	})
}

// handleRentalPriceByType implements GET /rental/prices/:gpuType.
func (s *Server) handleRentalPriceByType(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		gpuType := strings.TrimPrefix(r.URL.Path, "/rental/prices/")
		if !catalog.IsRentalType(gpuType) {
			s.sendError(w, http.StatusBadRequest, "unknown gpu type", strings.Join(catalog.RentalIDs(), ", "))
			return http.StatusBadRequest, nil
		}

		round, hit := s.rentalCache.Get(gpuType)
		if !hit {
			var err error
			round, err = s.rentalAgg.UpdatePrice(r.Context(), gpuType)
			if err != nil {
				s.sendError(w, http.StatusInternalServerError, "rental fetch failed", err.Error())
				return http.StatusInternalServerError, nil
			}
			s.rentalCache.Set(gpuType, round)
			s.appendRentalHistory(round.Stats)
		}

		s.sendJSON(w, http.StatusOK, map[string]interface{}{
			"stats":       round.Stats,
			"sourceClass": round.SourceClass,
			"cached":      hit,
		})
		return http.StatusOK, nil
	})
}

// handleRentalOffers implements GET /rental/offers/:gpuType: the raw
// per-round offer list, never cached.
func (s *Server) handleRentalOffers(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		gpuType := strings.TrimPrefix(r.URL.Path, "/rental/offers/")
		if !catalog.IsRentalType(gpuType) {
			s.sendError(w, http.StatusBadRequest, "unknown gpu type", strings.Join(catalog.RentalIDs(), ", "))
			return http.StatusBadRequest, nil
		}

		round, err := s.rentalAgg.UpdatePrice(r.Context(), gpuType)
		if err != nil {
			s.sendError(w, http.StatusInternalServerError, "rental fetch failed", err.Error())
			return http.StatusInternalServerError, nil
		}

		s.sendJSON(w, http.StatusOK, map[string]interface{}{
			"gpuType": gpuType,
			"offers":  round.Offers,
		})
		return http.StatusOK, nil
	})
}

// handleRentalHistory implements GET /rental/history: range query by
// gpuType?, startTime?, endTime?, limit? (default 1000).
func (s *Server) handleRentalHistory(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		q := parseRangeQuery(r, 1000)
		if r.URL.Query().Get("gpuType") != "" {
			q.SeriesKey = r.URL.Query().Get("gpuType")
		}

		records, err := s.rentalHist.QueryRentalRange(r.Context(), q)
		if errors.Is(err, history.ErrNotConfigured) {
			s.sendJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"history": []domain.RentalHistoryRecord{}})
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

// rentalHistoryTotals aggregates per-type Stats into a cross-type summary:
// the sum of counts, the overall min/max, and the oldest/newest timestamp
// seen across every GPU type.
type rentalHistoryTotals struct {
	Count           int     `json:"count"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	OldestTimestamp int64   `json:"oldestTimestamp"`
	NewestTimestamp int64   `json:"newestTimestamp"`
}

// handleRentalHistoryStats implements GET /rental/history/stats: per-type
// stats plus a totals object combining counts, min/max, and the
// oldest/newest timestamp across every GPU type.
func (s *Server) handleRentalHistoryStats(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		stats := make(map[string]interface{}, len(catalog.RentalIDs()))
		var totals rentalHistoryTotals
		seenAny := false

		for _, gpuType := range catalog.RentalIDs() {
			st, err := s.rentalHist.QueryRentalStats(r.Context(), gpuType)
			if err != nil {
				continue
			}
			stats[gpuType] = st

			totals.Count += st.Count
			if st.Count == 0 {
				continue
			}
			if !seenAny || st.Min < totals.Min {
				totals.Min = st.Min
			}
			if !seenAny || st.Max > totals.Max {
				totals.Max = st.Max
			}
			if !seenAny || (st.OldestTimestamp != 0 && st.OldestTimestamp < totals.OldestTimestamp) {
				totals.OldestTimestamp = st.OldestTimestamp
			}
			if !seenAny || st.NewestTimestamp > totals.NewestTimestamp {
				totals.NewestTimestamp = st.NewestTimestamp
			}
			seenAny = true
		}

		s.sendJSON(w, http.StatusOK, map[string]interface{}{"stats": stats, "totals": totals})
		return http.StatusOK, nil
	})
}

func (s *Server) appendRentalHistory(stats domain.RentalPriceStats) {
	if !s.rentalHist.Configured() {
		return
	}
	go func() {
		record := domain.RentalHistoryRecord{
			GPUType:          stats.GPUType,
			Timestamp:        stats.Timestamp,
			AvgPrice:         stats.AvgPrice,
			MinPrice:         stats.MinPrice,
			MaxPrice:         stats.MaxPrice,
			OfferCount:       stats.OfferCount,
			InterruptibleAvg: stats.InterruptibleAvg,
			OnDemandAvg:      stats.OnDemandAvg,
		}
		if err := s.rentalHist.InsertRental(context.Background(), record); err != nil {
			s.logger.Warn("failed to append rental history", "gpuType", stats.GPUType, "error", err.Error())
		}
	}()
}
