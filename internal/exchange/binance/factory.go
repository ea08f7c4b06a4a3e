package binance

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
)

// Factory는 계정별 바이낸스 클라이언트를 생성하고 캐시합니다.
// 모든 클라이언트는 하나의 요청 가중치 리미터와 심볼 필터 캐시를 공유합니다.
type Factory struct {
	opts    []ClientOption
	log     *zap.Logger
	mu      sync.Mutex
	clients map[string]cachedClient
}

type cachedClient struct {
	apiKey    string
	apiSecret string
	client    *Client
}

// NewFactory는 공통 옵션으로 Factory를 생성합니다
func NewFactory(weightPerMinute int, log *zap.Logger, opts ...ClientOption) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	shared := []ClientOption{
		WithLimiter(NewLimiter(weightPerMinute)),
		WithFilterCache(NewFilterCache()),
	}
	return &Factory{
		opts:    append(shared, opts...),
		log:     log,
		clients: make(map[string]cachedClient),
	}
}

// ForAccount는 계정 자격 증명에 맞는 Gateway를 반환합니다.
// 자격 증명이 바뀌면 클라이언트를 새로 만들고 서버 시간을 동기화합니다.
func (f *Factory) ForAccount(ctx context.Context, acc domain.AccountConfig) (exchange.Gateway, error) {
	f.mu.Lock()
	cached, ok := f.clients[acc.UserID]
	f.mu.Unlock()

	if ok && cached.apiKey == acc.APIKey && cached.apiSecret == acc.APISecret {
		return cached.client, nil
	}

	client := NewClient(acc.APIKey, acc.APISecret, f.opts...)
	if err := client.SyncTime(ctx); err != nil {
		// 시간 동기화 실패는 치명적이지 않습니다. -1021 응답 시 다시 동기화합니다
		f.log.Warn("서버 시간 동기화 실패", zap.String("user_id", acc.UserID), zap.Error(err))
	}

	f.mu.Lock()
	f.clients[acc.UserID] = cachedClient{apiKey: acc.APIKey, apiSecret: acc.APISecret, client: client}
	f.mu.Unlock()

	return client, nil
}

// Forget은 삭제된 계정의 클라이언트를 캐시에서 제거합니다
func (f *Factory) Forget(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, userID)
}
