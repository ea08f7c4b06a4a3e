package ledger

import (
	"sync"

	"github.com/assist-by/replica/internal/domain"
)

// Ledger는 활성 PendingOrder 집합과 ClosedPosition 버퍼를 하나의 잠금으로 보호합니다.
// 복제 엔진과 정산 엔진이 함께 사용하며, 네트워크 호출은 잠금 밖에서만 수행해야 합니다.
type Ledger struct {
	mu     sync.Mutex
	active []domain.PendingOrder // 삽입 순서 유지

	dirty   map[string]dirtyOrder // order_id -> 저장 대기 중인 최종 상태
	closed  []closedEntry         // 저장 대기 중인 청산 기록
	version uint64
	seq     uint64
}

type dirtyOrder struct {
	order   domain.PendingOrder
	version uint64
}

type closedEntry struct {
	seq      uint64
	position domain.ClosedPosition
}

// OrderUpdate는 체결 정보로 덮어쓸 주문 값입니다
type OrderUpdate struct {
	Quantity float64
	Price    float64
	SizeUSDT float64
}

// Batch는 저장소에 기록할 변경 묶음입니다
type Batch struct {
	Orders []domain.PendingOrder
	Closed []domain.ClosedPosition

	versions   map[string]uint64
	closedUpTo uint64
}

// Empty는 기록할 변경이 없는지 확인합니다
func (b Batch) Empty() bool {
	return len(b.Orders) == 0 && len(b.Closed) == 0
}

// New는 빈 Ledger를 생성합니다
func New() *Ledger {
	return &Ledger{dirty: make(map[string]dirtyOrder)}
}

// Load는 재시작 시 저장소의 활성 주문을 복원합니다. 변경으로 표시하지 않습니다
func (l *Ledger) Load(orders []domain.PendingOrder) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, o := range orders {
		// 정산 대상은 선물 진입 주문뿐입니다
		if o.Market != domain.Futures || l.indexOf(o.OrderID) >= 0 {
			continue
		}
		o.Active = true
		l.active = append(l.active, o)
	}
}

// Add는 새로 접수된 주문을 활성 집합에 추가합니다.
// 거래소가 취소/거절한 주문은 활성 집합에 넣지 않고 저장만 합니다.
func (l *Ledger) Add(o domain.PendingOrder) {
	if o.Status == domain.StatusCanceled {
		l.Record(o)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	o.Active = true
	if i := l.indexOf(o.OrderID); i >= 0 {
		l.active[i] = o
	} else {
		l.active = append(l.active, o)
	}
	l.markDirty(o)
}

// Record는 정산 대상이 아닌 주문을 비활성 상태로 한 번만 저장합니다.
// 현물 주문과 reduce-only 청산 주문이 여기에 해당합니다.
func (l *Ledger) Record(o domain.PendingOrder) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o.Active = false
	l.markDirty(o)
}

// Active는 활성 주문의 복사본을 삽입 순서대로 반환합니다
func (l *Ledger) Active() []domain.PendingOrder {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]domain.PendingOrder(nil), l.active...)
}

// ActiveFor는 계정의 활성 주문 복사본을 반환합니다
func (l *Ledger) ActiveFor(userID string) []domain.PendingOrder {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.PendingOrder
	for _, o := range l.active {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

// FindMatch는 체결과 짝이 되는 첫 번째 활성 주문을 찾습니다.
// 같은 계정, 같은 시장, 같은 심볼, 반대 방향, FILLED 상태여야 하며 후보 수를 함께 반환합니다.
// 체결보다 나중에 접수된 주문은 후보가 아닙니다. 이전 왕복 거래의 청산 체결이
// 새 주문에 다시 매칭되지 않게 합니다.
func (l *Ledger) FindMatch(userID string, market domain.Market, fill domain.Fill) (domain.PendingOrder, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		match      domain.PendingOrder
		candidates int
	)
	for _, o := range l.active {
		if o.UserID != userID || o.Market != market || o.Symbol != fill.Symbol ||
			o.Side == fill.Side || o.Status != domain.StatusFilled {
			continue
		}
		if placedAfter(o, fill) {
			continue
		}
		if candidates == 0 {
			match = o
		}
		candidates++
	}
	return match, candidates, candidates > 0
}

// placedAfter는 시간 정보가 둘 다 있을 때만 비교합니다
func placedAfter(o domain.PendingOrder, fill domain.Fill) bool {
	if o.Time.IsZero() || fill.Time.IsZero() {
		return false
	}
	return o.Time.After(fill.Time)
}

// Close는 주문을 체결 값으로 갱신하고 ClosedPosition을 추가한 뒤 활성 집합에서 제거합니다.
// 이미 제거된 주문이면 아무 것도 하지 않고 false를 반환합니다.
func (l *Ledger) Close(orderID string, update OrderUpdate, closed domain.ClosedPosition) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(orderID)
	if i < 0 {
		return false
	}

	o := l.active[i]
	o.Quantity = update.Quantity
	o.Price = update.Price
	o.SizeUSDT = update.SizeUSDT
	o.Active = false

	l.active = append(l.active[:i], l.active[i+1:]...)
	l.markDirty(o)

	l.seq++
	l.closed = append(l.closed, closedEntry{seq: l.seq, position: closed})
	return true
}

// Pending은 아직 저장되지 않은 변경의 스냅샷을 반환합니다
func (l *Ledger) Pending() Batch {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := Batch{versions: make(map[string]uint64, len(l.dirty))}
	for _, o := range l.active {
		if d, ok := l.dirty[o.OrderID]; ok {
			b.Orders = append(b.Orders, d.order)
			b.versions[o.OrderID] = d.version
		}
	}
	// 활성 집합에서 빠진 주문 (정산 완료)
	for id, d := range l.dirty {
		if _, ok := b.versions[id]; !ok {
			b.Orders = append(b.Orders, d.order)
			b.versions[id] = d.version
		}
	}
	for _, c := range l.closed {
		b.Closed = append(b.Closed, c.position)
		b.closedUpTo = c.seq
	}
	return b
}

// Ack는 저장에 성공한 Batch를 버퍼에서 제거합니다. 그 사이 다시 바뀐 주문은 남겨둡니다
func (l *Ledger) Ack(b Batch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, v := range b.versions {
		if d, ok := l.dirty[id]; ok && d.version == v {
			delete(l.dirty, id)
		}
	}

	n := 0
	for n < len(l.closed) && l.closed[n].seq <= b.closedUpTo {
		n++
	}
	l.closed = append([]closedEntry(nil), l.closed[n:]...)
}

// BufferedClosed는 저장 대기 중인 청산 기록 수를 반환합니다
func (l *Ledger) BufferedClosed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.closed)
}

func (l *Ledger) markDirty(o domain.PendingOrder) {
	l.version++
	l.dirty[o.OrderID] = dirtyOrder{order: o, version: l.version}
}

func (l *Ledger) indexOf(orderID string) int {
	for i, o := range l.active {
		if o.OrderID == orderID {
			return i
		}
	}
	return -1
}
