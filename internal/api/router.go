// Package api는 시그널 웹훅과 관리용 JSON API를 제공합니다.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/assist-by/replica/internal/account"
	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
	"github.com/assist-by/replica/internal/reconcile"
	"github.com/assist-by/replica/internal/replication"
	"github.com/assist-by/replica/internal/storage"
)

// SignalHandler는 시그널을 모든 계정에 복제합니다
type SignalHandler interface {
	Handle(ctx context.Context, sig domain.Signal) (*replication.Report, error)
}

// Reconciler는 정산을 한 번 실행합니다
type Reconciler interface {
	RunOnce(ctx context.Context) reconcile.Summary
}

// AccountWriter는 계정 변경을 즉시 저장합니다
type AccountWriter interface {
	SaveAccount(ctx context.Context, acc domain.AccountConfig) error
	DeleteAccount(ctx context.Context, userID string) error
}

// Deps는 라우터가 사용하는 구성 요소입니다
type Deps struct {
	Registry   *account.Registry
	Signals    SignalHandler
	Reconciler Reconciler
	Accounts   AccountWriter
	Store      storage.Store
	Gateways   exchange.Factory

	WebhookToken string
	AdminToken   string
	MaxWorkers   int
	Version      string
	Log          *zap.Logger
}

type server struct {
	Deps
	startedAt time.Time
}

// NewRouter는 HTTP 라우터를 생성합니다
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.MaxWorkers < 1 {
		d.MaxWorkers = 1
	}
	s := &server{Deps: d, startedAt: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(d.Log))

	r.Get("/health", s.health)
	r.Post("/webhook", s.webhook)

	r.Group(func(r chi.Router) {
		r.Use(AdminToken(d.AdminToken))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.saveAccount)
			r.Route("/{userID}", func(r chi.Router) {
				r.Post("/status", s.updateStatus)
				r.Post("/multiplier", s.updateMultiplier)
				r.Post("/leverage", s.updateLeverage)
				r.Delete("/", s.deleteAccount)
			})
		})

		r.Get("/orders", s.listOrders)
		r.Get("/closed-positions", s.listClosedPositions)
		r.Get("/positions", s.openPositions)
		r.Post("/sync", s.sync)
	})

	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	UptimeSec int64  `json:"uptime_sec"`
	Accounts  int    `json:"accounts"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   s.Version,
		UptimeSec: int64(time.Since(s.startedAt).Seconds()),
		Accounts:  len(s.Registry.Snapshot()),
	})
}
