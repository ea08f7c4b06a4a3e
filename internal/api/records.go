package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/storage"
)

func listOptions(r *http.Request) storage.ListOptions {
	q := r.URL.Query()
	opts := storage.ListOptions{UserID: q.Get("user_id")}
	opts.ActiveOnly, _ = strconv.ParseBool(q.Get("active"))
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		opts.Limit = n
	}
	return opts
}

func (s *server) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Store.ListOrders(r.Context(), listOptions(r))
	if err != nil {
		s.Log.Error("주문 목록 조회 실패", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if orders == nil {
		orders = []domain.PendingOrder{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *server) listClosedPositions(w http.ResponseWriter, r *http.Request) {
	closed, err := s.Store.ListClosedPositions(r.Context(), listOptions(r))
	if err != nil {
		s.Log.Error("청산 목록 조회 실패", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if closed == nil {
		closed = []domain.ClosedPosition{}
	}
	writeJSON(w, http.StatusOK, closed)
}

type accountPositions struct {
	UserID    string            `json:"user_id"`
	Positions []domain.Position `json:"positions"`
	Error     string            `json:"error,omitempty"`
}

// openPositions는 활성 계정들의 열린 선물 포지션을 조회합니다. 실패한 계정은 error 필드로 표시합니다
func (s *server) openPositions(w http.ResponseWriter, r *http.Request) {
	var active []domain.AccountConfig
	for _, acc := range s.Registry.Snapshot() {
		if acc.Active {
			active = append(active, acc)
		}
	}

	out := make([]accountPositions, len(active))
	var g errgroup.Group
	g.SetLimit(s.MaxWorkers)

	for i, acc := range active {
		i, acc := i, acc
		g.Go(func() error {
			res := accountPositions{UserID: acc.UserID, Positions: []domain.Position{}}

			gw, err := s.Gateways.ForAccount(r.Context(), acc)
			if err == nil {
				var positions []domain.Position
				positions, err = gw.GetPositions(r.Context(), domain.Futures)
				if positions != nil {
					res.Positions = positions
				}
			}
			if err != nil {
				s.Log.Warn("포지션 조회 실패", zap.String("user_id", acc.UserID), zap.Error(err))
				res.Error = err.Error()
			}

			out[i] = res
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, out)
}

func (s *server) sync(w http.ResponseWriter, r *http.Request) {
	summary := s.Reconciler.RunOnce(r.Context())
	if summary.FailedAccounts == nil {
		summary.FailedAccounts = []string{}
	}
	writeJSON(w, http.StatusOK, summary)
}
