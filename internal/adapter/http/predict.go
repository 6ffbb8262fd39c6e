package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
)

const maxBodyBytes = 1 << 20

type predictResponse struct {
	LandslideRiskPercent float64          `json:"landslide_risk_percent"`
	RiskLevel            domain.RiskLevel `json:"risk_level"`
	*explanation
}

// explanation is included when the client asks for ?explain=true.
type explanation struct {
	BaseProbability float64     `json:"base_probability"`
	RuleScore       float64     `json:"rule_score"`
	TriggeredRules  []string    `json:"triggered_rules"`
	Mode            domain.Mode `json:"mode"`
	Advisory        string      `json:"advisory"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	fields, status, err := decodeObservation(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	a, err := s.assessor.Assess(ctx, fields)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := predictResponse{
		LandslideRiskPercent: a.RiskPercent,
		RiskLevel:            a.Level,
	}
	if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
		triggered := a.TriggeredRules
		if triggered == nil {
			triggered = []string{}
		}
		resp.explanation = &explanation{
			BaseProbability: a.BaseProbability,
			RuleScore:       a.RuleScore,
			TriggeredRules:  triggered,
			Mode:            a.Mode,
			Advisory:        a.Level.Advisory(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeObservation reads a single flat JSON object from the request body.
// Numbers are kept as json.Number so integer and float inputs parse alike.
func decodeObservation(w http.ResponseWriter, r *http.Request) (map[string]any, int, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, http.StatusBadRequest, errors.New("request body is empty")
		default:
			return nil, http.StatusBadRequest, fmt.Errorf("request body must be a JSON object: %v", err)
		}
	}
	if fields == nil {
		return nil, http.StatusBadRequest, errors.New("request body must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, http.StatusBadRequest, errors.New("request body must contain a single JSON object")
	}
	return fields, 0, nil
}

func statusFor(err error) int {
	var fe *domain.FieldError
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
