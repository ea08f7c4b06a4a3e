package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/assist-by/replica/internal/domain"
)

// number는 숫자와 숫자 문자열을 모두 받습니다
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type webhookRequest struct {
	Token      string  `json:"token"`
	Action     string  `json:"action"`
	Market     string  `json:"market"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Size       number  `json:"size"`
	Percentage *number `json:"percentage"`
}

// signal은 기본값을 채워 Signal로 변환합니다. 해석할 수 없는 값은 그대로 넘겨 검증에서 거부됩니다
func (req webhookRequest) signal() domain.Signal {
	sig := domain.Signal{
		Symbol:     req.Symbol,
		SizePct:    float64(req.Size),
		Percentage: 100,
	}
	if req.Percentage != nil {
		sig.Percentage = float64(*req.Percentage)
	}

	if strings.TrimSpace(req.Action) == "" {
		sig.Action = domain.ActionTrade
	} else if a, ok := domain.ParseAction(req.Action); ok {
		sig.Action = a
	} else {
		sig.Action = domain.Action(req.Action)
	}

	if strings.TrimSpace(req.Market) == "" {
		sig.Market = domain.Futures
	} else if m, ok := domain.ParseMarket(req.Market); ok {
		sig.Market = m
	} else {
		sig.Market = domain.Market(req.Market)
	}

	if side, ok := domain.ParseSide(req.Side); ok {
		sig.Side = side
	} else {
		sig.Side = domain.OrderSide(req.Side)
	}

	return sig
}

type failureResponse struct {
	UserID string `json:"user_id"`
	Symbol string `json:"symbol,omitempty"`
	Reason string `json:"reason"`
}

type webhookResponse struct {
	Message string            `json:"message"`
	BatchID string            `json:"batch_id"`
	Placed  int               `json:"placed"`
	Skipped int               `json:"skipped"`
	Failed  []failureResponse `json:"failed"`
}

func (s *server) webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !secureTokenEqual(req.Token, s.WebhookToken) {
		s.Log.Warn("웹훅 토큰 불일치", zap.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	// 호출자가 연결을 끊어도 복제는 끝까지 진행합니다
	ctx := context.WithoutCancel(r.Context())

	report, err := s.Signals.Handle(ctx, req.signal())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.Log.Error("시그널 처리 실패", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := webhookResponse{
		Message: "시그널 처리 완료",
		BatchID: report.BatchID,
		Placed:  len(report.Placed()),
		Skipped: len(report.Skipped()),
		Failed:  []failureResponse{},
	}
	for _, f := range report.Failures() {
		resp.Failed = append(resp.Failed, failureResponse{UserID: f.UserID, Symbol: f.Symbol, Reason: f.Reason})
	}
	writeJSON(w, http.StatusOK, resp)
}

var _ json.Unmarshaler = (*number)(nil)
