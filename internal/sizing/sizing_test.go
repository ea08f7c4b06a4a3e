package sizing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/replica/internal/domain"
)

func TestRoundQuantity(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		step      string
		precision int
		want      string
	}{
		{name: "내림 처리 (반올림 금지)", raw: "1.23456", step: "0.001", precision: 3, want: "1.234"},
		{name: "최소 단위 미만은 0", raw: "0.0004", step: "0.001", precision: 3, want: "0"},
		{name: "정확한 배수", raw: "2.5", step: "0.5", precision: 1, want: "2.5"},
		{name: "스텝 내림 후 정밀도 절삭", raw: "7.99", step: "0.5", precision: 0, want: "7"},
		{name: "정수 스텝", raw: "123.9", step: "1", precision: 0, want: "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundQuantity(decimal.RequireFromString(tt.raw), decimal.RequireFromString(tt.step), tt.precision)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestSize(t *testing.T) {
	base := Input{
		Market:      domain.Futures,
		Balance:     1000,
		SizePct:     10,
		Multiplier:  2,
		Leverage:    5,
		Price:       100,
		StepSize:    0.001,
		Precision:   3,
		MinNotional: DefaultMinNotional,
	}

	tests := []struct {
		name     string
		mutate   func(*Input)
		wantQty  string
		wantSkip bool
	}{
		{
			name:    "레버리지 적용 선물 수량",
			mutate:  func(*Input) {},
			wantQty: "10",
		},
		{
			name:    "현물은 레버리지 무시",
			mutate:  func(in *Input) { in.Market = domain.Spot },
			wantQty: "2",
		},
		{
			name: "최소 주문 가치 미달은 스킵",
			mutate: func(in *Input) {
				in.Balance = 10
				in.SizePct = 1
				in.Multiplier = 1
				in.Leverage = 1
			},
			wantQty:  "0.001",
			wantSkip: true,
		},
		{
			name: "현물은 최소 주문 가치 검사 없음",
			mutate: func(in *Input) {
				in.Market = domain.Spot
				in.Balance = 10
				in.SizePct = 1
				in.Multiplier = 1
			},
			wantQty: "0.001",
		},
		{
			name:     "배수 0이면 수량 0으로 스킵",
			mutate:   func(in *Input) { in.Multiplier = 0 },
			wantQty:  "0",
			wantSkip: true,
		},
		{
			name: "고가 종목은 스텝 미만으로 스킵",
			mutate: func(in *Input) {
				in.Price = 100000
				in.Leverage = 1
				in.Multiplier = 0.001
			},
			wantQty:  "0",
			wantSkip: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)

			res, err := Size(in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, res.Skip)
			assert.True(t, decimal.RequireFromString(tt.wantQty).Equal(res.Quantity), "got %s", res.Quantity)
			if res.Skip {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestSize_NeverExceedsNotional(t *testing.T) {
	in := Input{
		Market:      domain.Spot,
		Balance:     333.33,
		SizePct:     37,
		Multiplier:  1.3,
		Price:       61234.57,
		StepSize:    0.00001,
		Precision:   5,
		MinNotional: DefaultMinNotional,
	}

	res, err := Size(in)
	require.NoError(t, err)

	budget := decimal.NewFromFloat(333.33).Mul(decimal.NewFromFloat(0.37)).Mul(decimal.NewFromFloat(1.3))
	assert.True(t, res.Notional.LessThanOrEqual(budget), "notional %s > budget %s", res.Notional, budget)
}

func TestSize_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{name: "가격 0", in: Input{Market: domain.Spot, Balance: 1, SizePct: 1, Multiplier: 1, StepSize: 1}},
		{name: "비율 초과", in: Input{Market: domain.Spot, Balance: 1, SizePct: 101, Multiplier: 1, Price: 1, StepSize: 1}},
		{name: "음수 배수", in: Input{Market: domain.Spot, Balance: 1, SizePct: 1, Multiplier: -1, Price: 1, StepSize: 1}},
		{name: "선물 레버리지 0", in: Input{Market: domain.Futures, Balance: 1, SizePct: 1, Multiplier: 1, Price: 1, StepSize: 1}},
		{name: "스텝 0", in: Input{Market: domain.Spot, Balance: 1, SizePct: 1, Multiplier: 1, Price: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Size(tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCloseQuantity(t *testing.T) {
	tests := []struct {
		name string
		amt  float64
		pct  float64
		want string
	}{
		{name: "롱 전량", amt: 0.123, pct: 100, want: "0.123"},
		{name: "숏 전량은 절대값", amt: -0.5, pct: 100, want: "0.5"},
		{name: "절반 내림", amt: 0.123, pct: 50, want: "0.061"},
		{name: "최소 단위 미만", amt: 0.001, pct: 10, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CloseQuantity(tt.amt, tt.pct, 0.001, 3)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestPrecisionFromStep(t *testing.T) {
	assert.Equal(t, 3, PrecisionFromStep(0.001))
	assert.Equal(t, 5, PrecisionFromStep(0.00001))
	assert.Equal(t, 0, PrecisionFromStep(1))
	assert.Equal(t, 0, PrecisionFromStep(0))
}
