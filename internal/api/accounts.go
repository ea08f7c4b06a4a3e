package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
)

type saveAccountRequest struct {
	UserID     string   `json:"user_id"`
	APIKey     string   `json:"api_key"`
	APISecret  string   `json:"api_secret"`
	Multiplier *float64 `json:"multiplier"`
	Leverage   *int     `json:"leverage"`
}

func (s *server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := s.Registry.Snapshot()
	out := make([]domain.AccountConfig, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, acc.Redacted())
	}
	writeJSON(w, http.StatusOK, out)
}

// saveAccount는 자격 증명을 등록합니다. verify=false가 아니면 거래소에서 키를 확인합니다
func (s *server) saveAccount(w http.ResponseWriter, r *http.Request) {
	var req saveAccountRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc := domain.AccountConfig{
		UserID:     req.UserID,
		APIKey:     req.APIKey,
		APISecret:  req.APISecret,
		Active:     true,
		Multiplier: 1,
		Leverage:   1,
	}
	if req.Multiplier != nil {
		acc.Multiplier = *req.Multiplier
	}
	if req.Leverage != nil {
		acc.Leverage = *req.Leverage
	}
	if err := acc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.forget(acc.UserID)

	verify := true
	if b, err := strconv.ParseBool(r.URL.Query().Get("verify")); err == nil {
		verify = b
	}
	if verify {
		gw, err := s.Gateways.ForAccount(r.Context(), acc)
		if err == nil {
			var summary domain.AccountSummary
			summary, err = gw.GetAccountSummary(r.Context())
			acc.AvailableFund = summary.AvailableBalance
			acc.LivePnL = summary.UnrealizedPnL
		}
		if err != nil {
			s.Log.Warn("API 키 확인 실패", zap.String("user_id", acc.UserID), zap.Error(err))
			s.forget(acc.UserID)
			if exchange.IsAuthError(err) {
				writeError(w, http.StatusBadRequest, "유효하지 않은 API 키: "+err.Error())
				return
			}
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}

	if err := s.Registry.Upsert(acc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Accounts.SaveAccount(r.Context(), acc); err != nil {
		s.Log.Error("계정 저장 실패", zap.String("user_id", acc.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.Log.Info("계정 자격 증명 저장", zap.String("user_id", acc.UserID))
	writeJSON(w, http.StatusOK, acc.Redacted())
}

func (s *server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	acc, err := s.Registry.SetStatus(chi.URLParam(r, "userID"), req.Active)
	s.finishUpdate(w, r, acc, err)
}

func (s *server) updateMultiplier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Multiplier *float64 `json:"multiplier"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Multiplier == nil {
		writeError(w, http.StatusBadRequest, domain.NewValidationError("multiplier", "필수 값입니다").Error())
		return
	}
	acc, err := s.Registry.SetMultiplier(chi.URLParam(r, "userID"), *req.Multiplier)
	s.finishUpdate(w, r, acc, err)
}

func (s *server) updateLeverage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Leverage *int `json:"leverage"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Leverage == nil {
		writeError(w, http.StatusBadRequest, domain.NewValidationError("leverage", "필수 값입니다").Error())
		return
	}
	acc, err := s.Registry.SetLeverage(chi.URLParam(r, "userID"), *req.Leverage)
	s.finishUpdate(w, r, acc, err)
}

func (s *server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := s.Accounts.DeleteAccount(r.Context(), userID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.forget(userID)
	s.Log.Info("계정 삭제", zap.String("user_id", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "계정이 삭제되었습니다"})
}

// finishUpdate는 Registry 변경 결과를 즉시 저장하고 응답합니다
func (s *server) finishUpdate(w http.ResponseWriter, r *http.Request, acc domain.AccountConfig, err error) {
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.Accounts.SaveAccount(r.Context(), acc); err != nil {
		s.Log.Error("계정 저장 실패", zap.String("user_id", acc.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Log.Info("계정 설정 변경",
		zap.String("user_id", acc.UserID),
		zap.Bool("active", acc.Active),
		zap.Float64("multiplier", acc.Multiplier),
		zap.Int("leverage", acc.Leverage))
	writeJSON(w, http.StatusOK, acc.Redacted())
}

func (s *server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.Log.Error("요청 처리 실패", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// forget은 캐시된 거래소 클라이언트를 버립니다
func (s *server) forget(userID string) {
	if f, ok := s.Gateways.(interface{ Forget(string) }); ok {
		f.Forget(userID)
	}
}
