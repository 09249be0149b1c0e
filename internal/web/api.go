package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paperdash/internal"
	"github.com/vadiminshakov/paperdash/internal/domain"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// numberField accepts a JSON number or a string and keeps its text, so
// that a non-numeric amount is reported as a trade failure and not as a
// malformed body.
type numberField string

func (n *numberField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numberField(strings.TrimSpace(s))
		return nil
	}
	*n = numberField(data)
	return nil
}

// decimal parses the field. An empty field is zero.
func (n numberField) decimal() (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}

type quoteRequest struct {
	Action domain.Action `json:"action"`
	Amount numberField   `json:"amount"`
	Unit   string        `json:"unit"`
}

// tradeRequest is the wire form of internal.TradeRequest.
type tradeRequest struct {
	AssetAmount numberField `json:"asset_amount"`
	QuoteAmount numberField `json:"quote_amount"`
	Price       numberField `json:"price"`
}

func (t tradeRequest) parse() (internal.TradeRequest, error) {
	asset, err := t.AssetAmount.decimal()
	if err != nil {
		return internal.TradeRequest{}, errors.Wrapf(domain.ErrInvalidAmount, "asset_amount %q", t.AssetAmount)
	}
	quote, err := t.QuoteAmount.decimal()
	if err != nil {
		return internal.TradeRequest{}, errors.Wrapf(domain.ErrInvalidAmount, "quote_amount %q", t.QuoteAmount)
	}
	price, err := t.Price.decimal()
	if err != nil {
		return internal.TradeRequest{}, domain.NewTradeError(domain.ErrInvalidPrice, "Please enter a valid price.")
	}
	return internal.TradeRequest{AssetAmount: asset, QuoteAmount: quote, Price: price}, nil
}

type errorResponse struct {
	Reason string `json:"reason"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	maxPoints := s.MaxPoints
	if raw := r.URL.Query().Get("max_points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Reason: "max_points must be a non-negative integer"})
			return
		}
		maxPoints = n
	}

	s.writeJSON(w, http.StatusOK, s.Dashboard.Snapshot(maxPoints))
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Dashboard.Trades())
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !s.decode(w, r, &req) {
		return
	}
	unit, ok := domain.ParseUnit(req.Unit)
	if !ok {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Reason: `unit must be "asset" or "quote"`})
		return
	}

	amount, err := req.Amount.decimal()
	if err != nil {
		err = errors.Wrapf(domain.ErrInvalidAmount, "amount %q", req.Amount)
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Reason: domain.ReasonOf(err)})
		return
	}

	q, err := s.Dashboard.Quote(req.Action, amount, unit)
	if err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Reason: domain.ReasonOf(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleTrade(action domain.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form tradeRequest
		if !s.decode(w, r, &form) {
			return
		}
		req, err := form.parse()
		if err != nil {
			s.writeJSON(w, http.StatusUnprocessableEntity, internal.TradeResult{Reason: domain.ReasonOf(err), Err: err})
			return
		}

		var res internal.TradeResult
		if action == domain.ActionBuy {
			res = s.Dashboard.Buy(r.Context(), req)
		} else {
			res = s.Dashboard.Sell(r.Context(), req)
		}

		status := http.StatusOK
		if !res.OK {
			status = http.StatusUnprocessableEntity
		}
		s.writeJSON(w, status, res)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Reason: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}
