package binance

import (
	"sync"
	"time"

	"github.com/assist-by/replica/internal/domain"
)

// DefaultFilterTTL은 심볼 필터 캐시 유지 시간입니다
const DefaultFilterTTL = time.Hour

// FilterCache는 시장별 심볼 필터를 보관합니다. 여러 계정 클라이언트가 공유합니다
type FilterCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]filterEntry
}

type filterEntry struct {
	filters domain.SymbolFilters
	at      time.Time
}

// NewFilterCache는 기본 TTL을 가진 캐시를 생성합니다
func NewFilterCache() *FilterCache {
	return &FilterCache{
		ttl:     DefaultFilterTTL,
		now:     time.Now,
		entries: make(map[string]filterEntry),
	}
}

func filterKey(market domain.Market, symbol string) string {
	return string(market) + ":" + symbol
}

// Get은 만료되지 않은 필터를 반환합니다
func (fc *FilterCache) Get(market domain.Market, symbol string) (domain.SymbolFilters, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	e, ok := fc.entries[filterKey(market, symbol)]
	if !ok || fc.now().Sub(e.at) > fc.ttl {
		return domain.SymbolFilters{}, false
	}
	return e.filters, true
}

// Put은 필터들을 저장합니다
func (fc *FilterCache) Put(market domain.Market, filters ...domain.SymbolFilters) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	at := fc.now()
	for _, f := range filters {
		fc.entries[filterKey(market, f.Symbol)] = filterEntry{filters: f, at: at}
	}
}
