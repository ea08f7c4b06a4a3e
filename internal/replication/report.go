package replication

import (
	"time"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/notification"
)

// Outcome은 계정 하나의 처리 결과 종류입니다
type Outcome string

const (
	Placed  Outcome = "placed"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// Result는 계정(또는 close_all의 포지션) 하나의 처리 결과입니다
type Result struct {
	UserID   string  `json:"user_id"`
	Symbol   string  `json:"symbol,omitempty"`
	Outcome  Outcome `json:"outcome"`
	OrderID  string  `json:"order_id,omitempty"`
	Quantity string  `json:"quantity,omitempty"`
	Reason   string  `json:"reason,omitempty"`
	Err      error   `json:"-"`
}

// Report는 시그널 하나를 모든 계정에 복제한 결과입니다
type Report struct {
	BatchID    string        `json:"batch_id"`
	Signal     domain.Signal `json:"-"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []Result      `json:"results"`
}

// Placed는 주문이 접수된 결과들을 반환합니다
func (r *Report) Placed() []Result { return r.filter(Placed) }

// Skipped는 주문 없이 넘어간 결과들을 반환합니다
func (r *Report) Skipped() []Result { return r.filter(Skipped) }

// Failures는 실패한 결과들을 반환합니다
func (r *Report) Failures() []Result { return r.filter(Failed) }

func (r *Report) filter(o Outcome) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == o {
			out = append(out, res)
		}
	}
	return out
}

// Summary는 알림용 요약으로 변환합니다
func (r *Report) Summary() notification.BatchSummary {
	s := notification.BatchSummary{
		BatchID: r.BatchID,
		Action:  r.Signal.Action,
		Market:  r.Signal.Market,
		Symbol:  r.Signal.Symbol,
		Side:    r.Signal.Side,
		Placed:  len(r.Placed()),
		Skipped: len(r.Skipped()),
	}
	for _, f := range r.Failures() {
		s.Failures = append(s.Failures, notification.Failure{UserID: f.UserID, Symbol: f.Symbol, Reason: f.Reason})
	}
	return s
}
