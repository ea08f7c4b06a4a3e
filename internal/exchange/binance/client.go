package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/exchange"
	"github.com/assist-by/replica/internal/sizing"
)

const (
	FuturesURL        = "https://fapi.binance.com"
	SpotURL           = "https://api.binance.com"
	FuturesTestnetURL = "https://testnet.binancefuture.com"
	SpotTestnetURL    = "https://testnet.binance.vision"

	// DefaultWeightPerMinute는 바이낸스 IP당 요청 가중치 한도입니다
	DefaultWeightPerMinute = 1200
)

// 중복 clientOrderId 에러 코드 (선물)
const codeDuplicateClientOrderID = -4116

// Client는 바이낸스 선물/현물 REST API 클라이언트를 구현합니다
type Client struct {
	apiKey           string
	secretKey        string
	futuresURL       string
	spotURL          string
	quoteAsset       string
	recvWindow       int
	httpClient       *http.Client
	limiter          *rate.Limiter
	filters          *FilterCache
	serverTimeOffset int64 // 서버 시간과의 차이를 저장
	mu               sync.RWMutex
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURLs는 선물/현물 기본 URL을 설정합니다. 빈 값은 무시합니다
func WithBaseURLs(futuresURL, spotURL string) ClientOption {
	return func(c *Client) {
		if futuresURL != "" {
			c.futuresURL = strings.TrimRight(futuresURL, "/")
		}
		if spotURL != "" {
			c.spotURL = strings.TrimRight(spotURL, "/")
		}
	}
}

// WithTestnet은 테스트넷 사용 여부를 설정합니다
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.futuresURL = FuturesTestnetURL
			c.spotURL = SpotTestnetURL
		} else {
			c.futuresURL = FuturesURL
			c.spotURL = SpotURL
		}
	}
}

// WithRecvWindow는 서명 요청의 recvWindow(ms)를 설정합니다
func WithRecvWindow(ms int) ClientOption {
	return func(c *Client) {
		if ms > 0 {
			c.recvWindow = ms
		}
	}
}

// WithQuoteAsset은 현물 포지션 계산에 사용할 견적 자산을 설정합니다
func WithQuoteAsset(asset string) ClientOption {
	return func(c *Client) {
		if asset != "" {
			c.quoteAsset = strings.ToUpper(asset)
		}
	}
}

// WithLimiter는 요청 가중치 리미터를 지정합니다. 여러 계정이 같은 IP 한도를 공유할 때 사용합니다
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithFilterCache는 심볼 필터 캐시를 지정합니다
func WithFilterCache(fc *FilterCache) ClientOption {
	return func(c *Client) {
		c.filters = fc
	}
}

// WithHTTPClient는 HTTP 클라이언트를 교체합니다
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewLimiter는 분당 가중치 한도에 맞는 리미터를 생성합니다
func NewLimiter(weightPerMinute int) *rate.Limiter {
	if weightPerMinute <= 0 {
		weightPerMinute = DefaultWeightPerMinute
	}
	return rate.NewLimiter(rate.Limit(float64(weightPerMinute)/60), weightPerMinute)
}

// NewClient는 새로운 바이낸스 API 클라이언트를 생성합니다
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		futuresURL: FuturesURL,
		spotURL:    SpotURL,
		quoteAsset: "USDT",
		recvWindow: 5000,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	if c.limiter == nil {
		c.limiter = NewLimiter(DefaultWeightPerMinute)
	}
	if c.filters == nil {
		c.filters = NewFilterCache()
	}

	return c
}

func (c *Client) baseURL(market domain.Market) string {
	if market == domain.Spot {
		return c.spotURL
	}
	return c.futuresURL
}

// request는 doRequest에 전달되는 요청 정보입니다
type request struct {
	op       string
	method   string
	market   domain.Market
	endpoint string
	params   url.Values
	sign     bool
	weight   int
}

// doRequest는 HTTP 요청을 실행하고 결과를 반환합니다
func (c *Client) doRequest(ctx context.Context, r request) ([]byte, error) {
	params := r.params
	if params == nil {
		params = url.Values{}
	}

	weight := r.weight
	if weight < 1 {
		weight = 1
	}
	if err := c.limiter.WaitN(ctx, weight); err != nil {
		return nil, exchange.NewTransportError(r.op, err)
	}

	// URL 생성
	reqURL, err := url.Parse(c.baseURL(r.market) + r.endpoint)
	if err != nil {
		return nil, &exchange.Error{Op: r.op, Err: fmt.Errorf("URL 파싱 실패: %w", err)}
	}

	// 타임스탬프 추가
	if r.sign {
		params.Set("timestamp", strconv.FormatInt(c.getServerTime(), 10))
		params.Set("recvWindow", strconv.Itoa(c.recvWindow))
	}

	// 파라미터 설정
	reqURL.RawQuery = params.Encode()

	// 서명 추가
	if r.sign {
		reqURL.RawQuery = reqURL.RawQuery + "&signature=" + c.sign(params.Encode())
	}

	// 요청 생성
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), nil)
	if err != nil {
		return nil, &exchange.Error{Op: r.op, Err: fmt.Errorf("요청 생성 실패: %w", err)}
	}

	// 헤더 설정
	req.Header.Set("Content-Type", "application/json")
	if r.sign {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	// 요청 실행
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, exchange.NewTransportError(r.op, err)
	}
	defer resp.Body.Close()

	// 응답 읽기
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exchange.NewTransportError(r.op, fmt.Errorf("응답 읽기 실패: %w", err))
	}

	// 상태 코드 확인
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiErr); err != nil {
			return nil, exchange.NewAPIError(r.op, resp.StatusCode, 0, strings.TrimSpace(string(body)))
		}

		// 타임스탬프 오차는 시간을 다시 맞춘 뒤 재시도할 수 있게 합니다
		if apiErr.Code == exchange.CodeTimestamp {
			_ = c.SyncTime(ctx)
		}

		return nil, exchange.NewAPIError(r.op, resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	return body, nil
}

// sign은 요청에 대한 서명을 생성합니다
func (c *Client) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// getServerTime은 현재 서버 시간을 반환합니다
func (c *Client) getServerTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().UnixMilli() + c.serverTimeOffset
}

// SyncTime은 바이낸스 서버와 시간을 동기화합니다
func (c *Client) SyncTime(ctx context.Context) error {
	resp, err := c.doRequest(ctx, request{
		op: "서버 시간 조회", method: http.MethodGet, market: domain.Futures, endpoint: "/fapi/v1/time",
	})
	if err != nil {
		return err
	}

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	c.mu.Lock()
	c.serverTimeOffset = result.ServerTime - time.Now().UnixMilli()
	c.mu.Unlock()
	return nil
}

// GetPrice는 심볼의 최근 체결가를 조회합니다
func (c *Client) GetPrice(ctx context.Context, market domain.Market, symbol string) (float64, error) {
	endpoint := "/fapi/v1/ticker/price"
	if market == domain.Spot {
		endpoint = "/api/v3/ticker/price"
	}

	params := url.Values{}
	params.Set("symbol", symbol)

	resp, err := c.doRequest(ctx, request{
		op: "가격 조회", method: http.MethodGet, market: market, endpoint: endpoint, params: params, weight: 2,
	})
	if err != nil {
		return 0, err
	}

	var result struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price,string"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, fmt.Errorf("가격 파싱 실패: %w", err)
	}

	if result.Price <= 0 {
		return 0, fmt.Errorf("%s %s: %w", market, symbol, exchange.ErrInvalidPrice)
	}

	return result.Price, nil
}

// GetSymbolFilters는 수량 계산에 필요한 심볼 필터를 조회합니다. 결과는 캐시됩니다
func (c *Client) GetSymbolFilters(ctx context.Context, market domain.Market, symbol string) (domain.SymbolFilters, error) {
	if f, ok := c.filters.Get(market, symbol); ok {
		return f, nil
	}

	var (
		filters []domain.SymbolFilters
		err     error
	)
	if market == domain.Spot {
		filters, err = c.fetchSpotFilters(ctx, symbol)
	} else {
		filters, err = c.fetchFuturesFilters(ctx)
	}
	if err != nil {
		return domain.SymbolFilters{}, err
	}

	c.filters.Put(market, filters...)

	if f, ok := c.filters.Get(market, symbol); ok {
		return f, nil
	}
	return domain.SymbolFilters{}, exchange.NewAPIError("심볼 정보 조회", http.StatusBadRequest,
		exchange.CodeInvalidSymbol, fmt.Sprintf("심볼 정보를 찾을 수 없음: %s", symbol))
}

type rawSymbolInfo struct {
	Symbol            string `json:"symbol"`
	QuantityPrecision *int   `json:"quantityPrecision"`
	Filters           []struct {
		FilterType  string `json:"filterType"`
		StepSize    string `json:"stepSize,omitempty"`
		Notional    string `json:"notional,omitempty"`
		MinNotional string `json:"minNotional,omitempty"`
	} `json:"filters"`
}

func (s rawSymbolInfo) toFilters() domain.SymbolFilters {
	f := domain.SymbolFilters{Symbol: s.Symbol}

	// 필터 정보 추출
	for _, filter := range s.Filters {
		switch filter.FilterType {
		case "LOT_SIZE": // 수량 단위 필터
			if v, err := strconv.ParseFloat(filter.StepSize, 64); err == nil {
				f.StepSize = v
			}
		case "MIN_NOTIONAL", "NOTIONAL": // 최소 주문 가치 필터
			raw := filter.Notional
			if raw == "" {
				raw = filter.MinNotional
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				f.MinNotional = v
			}
		}
	}

	// 현물 exchangeInfo에는 quantityPrecision이 없으므로 스텝 사이즈에서 구합니다
	if s.QuantityPrecision != nil {
		f.Precision = *s.QuantityPrecision
	} else {
		f.Precision = sizing.PrecisionFromStep(f.StepSize)
	}

	return f
}

func (c *Client) fetchFuturesFilters(ctx context.Context) ([]domain.SymbolFilters, error) {
	resp, err := c.doRequest(ctx, request{
		op: "심볼 정보 조회", method: http.MethodGet, market: domain.Futures, endpoint: "/fapi/v1/exchangeInfo", weight: 1,
	})
	if err != nil {
		return nil, err
	}
	return parseExchangeInfo(resp)
}

func (c *Client) fetchSpotFilters(ctx context.Context, symbol string) ([]domain.SymbolFilters, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	resp, err := c.doRequest(ctx, request{
		op: "심볼 정보 조회", method: http.MethodGet, market: domain.Spot, endpoint: "/api/v3/exchangeInfo", params: params, weight: 20,
	})
	if err != nil {
		return nil, err
	}
	return parseExchangeInfo(resp)
}

func parseExchangeInfo(resp []byte) ([]domain.SymbolFilters, error) {
	var info struct {
		Symbols []rawSymbolInfo `json:"symbols"`
	}
	if err := json.Unmarshal(resp, &info); err != nil {
		return nil, fmt.Errorf("심볼 정보 파싱 실패: %w", err)
	}

	out := make([]domain.SymbolFilters, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		out = append(out, s.toFilters())
	}
	return out, nil
}

// GetBalance는 자산의 사용 가능한 잔고를 조회합니다
func (c *Client) GetBalance(ctx context.Context, market domain.Market, asset string) (float64, error) {
	asset = strings.ToUpper(asset)

	if market == domain.Spot {
		balances, err := c.spotBalances(ctx)
		if err != nil {
			return 0, err
		}
		return balances[asset], nil
	}

	resp, err := c.doRequest(ctx, request{
		op: "잔고 조회", method: http.MethodGet, market: domain.Futures, endpoint: "/fapi/v2/balance", sign: true, weight: 5,
	})
	if err != nil {
		return 0, err
	}

	var assets []struct {
		Asset            string  `json:"asset"`
		Balance          float64 `json:"balance,string"`
		AvailableBalance float64 `json:"availableBalance,string"`
	}
	if err := json.Unmarshal(resp, &assets); err != nil {
		return 0, fmt.Errorf("잔고 파싱 실패: %w", err)
	}

	for _, a := range assets {
		if a.Asset == asset {
			return a.AvailableBalance, nil
		}
	}
	return 0, nil
}

// spotBalances는 현물 계정의 자산별 free 잔고를 반환합니다
func (c *Client) spotBalances(ctx context.Context) (map[string]float64, error) {
	resp, err := c.doRequest(ctx, request{
		op: "현물 잔고 조회", method: http.MethodGet, market: domain.Spot, endpoint: "/api/v3/account", sign: true, weight: 20,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Balances []struct {
			Asset  string  `json:"asset"`
			Free   float64 `json:"free,string"`
			Locked float64 `json:"locked,string"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("현물 잔고 파싱 실패: %w", err)
	}

	balances := make(map[string]float64, len(result.Balances))
	for _, b := range result.Balances {
		balances[b.Asset] = b.Free
	}
	return balances, nil
}

// GetPositions는 현재 열린 포지션을 조회합니다.
// 현물은 견적 자산을 제외한 0이 아닌 free 잔고를 <ASSET><QUOTE> 롱 포지션으로 보고합니다.
func (c *Client) GetPositions(ctx context.Context, market domain.Market) ([]domain.Position, error) {
	if market == domain.Spot {
		balances, err := c.spotBalances(ctx)
		if err != nil {
			return nil, err
		}

		var positions []domain.Position
		for asset, free := range balances {
			if asset == c.quoteAsset || free <= 0 {
				continue
			}
			positions = append(positions, domain.Position{
				Symbol:   asset + c.quoteAsset,
				Quantity: free,
				Leverage: 1,
			})
		}
		sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
		return positions, nil
	}

	resp, err := c.doRequest(ctx, request{
		op: "포지션 조회", method: http.MethodGet, market: domain.Futures, endpoint: "/fapi/v2/positionRisk", sign: true, weight: 5,
	})
	if err != nil {
		return nil, err
	}

	var positionsRaw []struct {
		Symbol           string  `json:"symbol"`
		PositionAmt      float64 `json:"positionAmt,string"`
		EntryPrice       float64 `json:"entryPrice,string"`
		MarkPrice        float64 `json:"markPrice,string"`
		UnrealizedProfit float64 `json:"unRealizedProfit,string"`
		Leverage         float64 `json:"leverage,string"`
	}
	if err := json.Unmarshal(resp, &positionsRaw); err != nil {
		return nil, fmt.Errorf("포지션 데이터 파싱 실패: %w", err)
	}

	// 활성 포지션만 필터링 (수량이 0이 아닌 포지션)
	var positions []domain.Position
	for _, p := range positionsRaw {
		if p.PositionAmt == 0 {
			continue
		}
		positions = append(positions, domain.Position{
			Symbol:        p.Symbol,
			Quantity:      p.PositionAmt,
			EntryPrice:    p.EntryPrice,
			MarkPrice:     p.MarkPrice,
			UnrealizedPnL: p.UnrealizedProfit,
			Leverage:      int(p.Leverage),
		})
	}

	return positions, nil
}

// GetAccountTrades는 선물 계정의 심볼 체결 내역을 시간순으로 조회합니다
func (c *Client) GetAccountTrades(ctx context.Context, symbol string) ([]domain.Fill, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	resp, err := c.doRequest(ctx, request{
		op: "체결 내역 조회", method: http.MethodGet, market: domain.Futures, endpoint: "/fapi/v1/userTrades",
		params: params, sign: true, weight: 5,
	})
	if err != nil {
		return nil, err
	}

	var tradesRaw []struct {
		OrderID     int64   `json:"orderId"`
		Symbol      string  `json:"symbol"`
		Side        string  `json:"side"`
		Qty         float64 `json:"qty,string"`
		Price       float64 `json:"price,string"`
		RealizedPnl float64 `json:"realizedPnl,string"`
		Time        int64   `json:"time"`
	}
	if err := json.Unmarshal(resp, &tradesRaw); err != nil {
		return nil, fmt.Errorf("체결 내역 파싱 실패: %w", err)
	}

	fills := make([]domain.Fill, len(tradesRaw))
	for i, t := range tradesRaw {
		fills[i] = domain.Fill{
			OrderID:     t.OrderID,
			Symbol:      t.Symbol,
			Side:        domain.OrderSide(strings.ToUpper(t.Side)),
			Quantity:    t.Qty,
			Price:       t.Price,
			RealizedPnL: t.RealizedPnl,
			Time:        time.UnixMilli(t.Time),
		}
	}

	sort.SliceStable(fills, func(i, j int) bool { return fills[i].Time.Before(fills[j].Time) })
	return fills, nil
}

// GetAccountSummary는 선물 계정의 사용 가능 잔고와 미실현 손익을 조회합니다
func (c *Client) GetAccountSummary(ctx context.Context) (domain.AccountSummary, error) {
	resp, err := c.doRequest(ctx, request{
		op: "계정 조회", method: http.MethodGet, market: domain.Futures, endpoint: "/fapi/v2/account", sign: true, weight: 5,
	})
	if err != nil {
		return domain.AccountSummary{}, err
	}

	var result struct {
		AvailableBalance      float64 `json:"availableBalance,string"`
		TotalUnrealizedProfit float64 `json:"totalUnrealizedProfit,string"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return domain.AccountSummary{}, fmt.Errorf("계정 정보 파싱 실패: %w", err)
	}

	return domain.AccountSummary{
		AvailableBalance: result.AvailableBalance,
		UnrealizedPnL:    result.TotalUnrealizedProfit,
	}, nil
}

// PlaceMarketOrder는 시장가 주문을 생성합니다.
// 같은 ClientOrderID로 재시도했는데 이미 접수된 주문이면 기존 주문을 조회해 반환합니다.
func (c *Client) PlaceMarketOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", string(order.Side))
	params.Set("type", string(domain.MarketOrder))
	params.Set("quantity", order.Quantity.String())
	params.Set("newOrderRespType", "RESULT")

	if order.ReduceOnly && order.Market == domain.Futures {
		params.Set("reduceOnly", "true")
	}

	// 클라이언트 주문 ID가 설정되었으면 추가
	if order.ClientOrderID != "" {
		params.Set("newClientOrderId", order.ClientOrderID)
	}

	endpoint := "/fapi/v1/order"
	if order.Market == domain.Spot {
		endpoint = "/api/v3/order"
	}

	resp, err := c.doRequest(ctx, request{
		op: "주문 실행", method: http.MethodPost, market: order.Market, endpoint: endpoint, params: params, sign: true, weight: 1,
	})
	if err != nil {
		if order.ClientOrderID != "" && isDuplicateOrder(err) {
			return c.queryOrder(ctx, order.Market, order.Symbol, order.ClientOrderID)
		}
		return nil, fmt.Errorf("주문 실행 실패 [심볼: %s, 방향: %s, 수량: %s]: %w",
			order.Symbol, order.Side, order.Quantity.String(), err)
	}

	return parseOrderResponse(resp)
}

// queryOrder는 clientOrderId로 주문을 조회합니다
func (c *Client) queryOrder(ctx context.Context, market domain.Market, symbol, clientOrderID string) (*domain.OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("origClientOrderId", clientOrderID)

	endpoint := "/fapi/v1/order"
	if market == domain.Spot {
		endpoint = "/api/v3/order"
	}

	resp, err := c.doRequest(ctx, request{
		op: "주문 조회", method: http.MethodGet, market: market, endpoint: endpoint, params: params, sign: true, weight: 4,
	})
	if err != nil {
		return nil, err
	}
	return parseOrderResponse(resp)
}

func isDuplicateOrder(err error) bool {
	var exErr *exchange.Error
	if !errors.As(err, &exErr) {
		return false
	}
	return exErr.Code == codeDuplicateClientOrderID || strings.Contains(exErr.Msg, "Duplicate order")
}

func parseOrderResponse(resp []byte) (*domain.OrderResponse, error) {
	var result struct {
		OrderID             int64  `json:"orderId"`
		Symbol              string `json:"symbol"`
		Status              string `json:"status"`
		ClientOrderID       string `json:"clientOrderId"`
		AvgPrice            string `json:"avgPrice"`
		OrigQty             string `json:"origQty"`
		ExecutedQty         string `json:"executedQty"`
		CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
		Side                string `json:"side"`
		UpdateTime          int64  `json:"updateTime"`
		TransactTime        int64  `json:"transactTime"`
		Time                int64  `json:"time"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}

	// 문자열을 숫자로 변환
	avgPrice, _ := strconv.ParseFloat(result.AvgPrice, 64)
	origQuantity, _ := strconv.ParseFloat(result.OrigQty, 64)
	executedQuantity, _ := strconv.ParseFloat(result.ExecutedQty, 64)

	// 현물 응답에는 avgPrice가 없으므로 체결 금액에서 구합니다
	if avgPrice == 0 && executedQuantity > 0 {
		if quote, err := strconv.ParseFloat(result.CummulativeQuoteQty, 64); err == nil {
			avgPrice = quote / executedQuantity
		}
	}

	ts := result.Time
	for _, v := range []int64{result.TransactTime, result.UpdateTime} {
		if ts == 0 {
			ts = v
		}
	}

	var created time.Time
	if ts > 0 {
		created = time.UnixMilli(ts)
	}

	return &domain.OrderResponse{
		OrderID:          result.OrderID,
		Symbol:           result.Symbol,
		Status:           result.Status,
		ClientOrderID:    result.ClientOrderID,
		AvgPrice:         avgPrice,
		OrigQuantity:     origQuantity,
		ExecutedQuantity: executedQuantity,
		Side:             domain.OrderSide(result.Side),
		CreateTime:       created,
	}, nil
}
