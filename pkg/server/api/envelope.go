package api

import (
	"encoding/json"
	"net/http"

	"hwp.dev/oracle/pkg/catalog"
)

// envelopeRequest is the Chainlink-style oracle-adapter request shape for
// POST /price and POST /prices.
type envelopeRequest struct {
	ID   interface{}     `json:"id"`
	Data envelopeReqData `json:"data"`
}

type envelopeReqData struct {
	AssetID  string   `json:"assetId"`
	Asset    string   `json:"asset"`
	Assets   []string `json:"assets"`
	AssetIDs []string `json:"assetIds"`
}

// envelopeSuccess is the success reply shape for POST /price.
type envelopeSuccess struct {
	JobRunID   interface{}    `json:"jobRunID"`
	StatusCode int            `json:"statusCode"`
	Data       envelopeResult `json:"data"`
}

type envelopeResult struct {
	Result      string      `json:"result"`
	Price       interface{} `json:"price"`
	TWAP        interface{} `json:"twap"`
	PriceInt    string      `json:"priceInt"`
	SourceCount int         `json:"sourceCount"`
	Timestamp   int64       `json:"timestamp"`
	AssetID     string      `json:"assetId"`
}

// envelopeError is the error reply shape: no data field.
type envelopeError struct {
	JobRunID   interface{} `json:"jobRunID"`
	StatusCode int         `json:"statusCode"`
	Error      string      `json:"error"`
}

// handleEnvelopePrice implements POST /price, the single-asset envelope
// lookup.
func (s *Server) handleEnvelopePrice(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		if r.Method != http.MethodPost {
			s.sendEnvelopeError(w, "0", http.StatusMethodNotAllowed, "method not allowed")
			return http.StatusMethodNotAllowed, nil
		}

		var req envelopeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendEnvelopeError(w, "0", http.StatusBadRequest, "Invalid request format")
			return http.StatusBadRequest, nil
		}

		jobRunID := req.ID
		if jobRunID == nil {
			jobRunID = "0"
		}

		assetID := req.Data.AssetID
		if assetID == "" {
			assetID = req.Data.Asset
		}
		if assetID == "" {
			s.sendEnvelopeError(w, jobRunID, http.StatusBadRequest, "missing assetId")
			return http.StatusBadRequest, nil
		}
		if !catalog.IsHardwareAsset(assetID) {
			s.sendEnvelopeError(w, jobRunID, http.StatusBadRequest, string(ErrCodeInvalidAsset))
			return http.StatusBadRequest, nil
		}

		price, ok := s.aggregator.GetPrice(assetID)
		if !ok {
			s.sendEnvelopeError(w, jobRunID, http.StatusNotFound, string(ErrCodeNoPrice))
			return http.StatusNotFound, nil
		}

		s.sendJSON(w, http.StatusOK, envelopeSuccess{
			JobRunID:   jobRunID,
			StatusCode: http.StatusOK,
			Data: envelopeResult{
				Result:      price.PriceInt,
				Price:       price.Price,
				TWAP:        price.TWAP,
				PriceInt:    price.PriceInt,
				SourceCount: price.SourceCount,
				Timestamp:   price.Timestamp,
				AssetID:     price.AssetID,
			},
		})
		return http.StatusOK, nil
	})
}

// handleEnvelopePrices implements POST /prices, the multi-asset envelope
// lookup: data.assets[] or data.assetIds[] selects a subset, absence means
// all known assets; any unknown id is rejected wholesale.
func (s *Server) handleEnvelopePrices(w http.ResponseWriter, r *http.Request) {
	s.timed(r, func() (int, error) {
		if r.Method != http.MethodPost {
			s.sendEnvelopeError(w, "0", http.StatusMethodNotAllowed, "method not allowed")
			return http.StatusMethodNotAllowed, nil
		}

		var req envelopeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendEnvelopeError(w, "0", http.StatusBadRequest, "Invalid request format")
			return http.StatusBadRequest, nil
		}

		jobRunID := req.ID
		if jobRunID == nil {
			jobRunID = "0"
		}

		ids := req.Data.Assets
		if len(ids) == 0 {
			ids = req.Data.AssetIDs
		}
		if len(ids) == 0 {
			ids = catalog.HardwareIDs()
		}

		results := make(map[string]envelopeResult, len(ids))
		for _, assetID := range ids {
			if !catalog.IsHardwareAsset(assetID) {
				s.sendEnvelopeError(w, jobRunID, http.StatusBadRequest, string(ErrCodeInvalidAsset)+": "+assetID)
				return http.StatusBadRequest, nil
			}
			price, ok := s.aggregator.GetPrice(assetID)
			if !ok {
				continue
			}
			results[assetID] = envelopeResult{
				Result:      price.PriceInt,
				Price:       price.Price,
				TWAP:        price.TWAP,
				PriceInt:    price.PriceInt,
				SourceCount: price.SourceCount,
				Timestamp:   price.Timestamp,
				AssetID:     price.AssetID,
			}
		}

		s.sendJSON(w, http.StatusOK, map[string]interface{}{
			"jobRunID":   jobRunID,
			"statusCode": http.StatusOK,
			"data":       map[string]interface{}{"results": results},
		})
		return http.StatusOK, nil
	})
}

func (s *Server) sendEnvelopeError(w http.ResponseWriter, jobRunID interface{}, status int, msg string) {
	s.sendJSON(w, status, envelopeError{JobRunID: jobRunID, StatusCode: status, Error: msg})
}
