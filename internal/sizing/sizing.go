package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/assist-by/replica/internal/domain"
)

// DefaultMinNotional은 선물 주문의 최소 주문 가치(USDT)입니다
const DefaultMinNotional = 5.0

// quotientPrecision은 수량 나눗셈에서 유지할 소수점 자릿수입니다 (이후 절삭)
const quotientPrecision = 18

var hundred = decimal.NewFromInt(100)

// Input은 주문 수량 계산에 필요한 값들입니다
type Input struct {
	Market      domain.Market // 선물은 레버리지와 최소 주문 가치를 적용합니다
	Balance     float64       // 사용 가능한 잔고 (견적 자산)
	SizePct     float64       // 잔고 대비 비율 (0, 100]
	Multiplier  float64       // 계정 리스크 배수
	Leverage    int           // 선물 레버리지, 현물은 무시
	Price       float64       // 현재 가격
	StepSize    float64       // 수량 최소 단위
	Precision   int           // 수량 소수점 자릿수
	MinNotional float64       // 선물 최소 주문 가치
}

// Result는 수량 계산 결과입니다. Skip이면 주문하지 않고 다음 계정으로 넘어갑니다
type Result struct {
	Quantity decimal.Decimal // 최종 주문 수량
	Notional decimal.Decimal // Quantity * Price
	Skip     bool
	Reason   string
}

// Size는 시그널 비율과 계정 설정으로 주문 수량을 계산합니다.
// 수량은 항상 내림 처리되므로 계산된 주문 가치를 넘지 않습니다.
func Size(in Input) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	price := decimal.NewFromFloat(in.Price)

	// 1. 투입 금액 = 잔고 * 비율 * 배수
	notional := decimal.NewFromFloat(in.Balance).
		Mul(decimal.NewFromFloat(in.SizePct)).
		Div(hundred).
		Mul(decimal.NewFromFloat(in.Multiplier))

	// 2. 원시 수량 (몫은 절삭)
	raw, _ := notional.QuoRem(price, quotientPrecision)

	// 3. 선물은 레버리지 적용
	if in.Market == domain.Futures {
		raw = raw.Mul(decimal.NewFromInt(int64(in.Leverage)))
	}

	// 4. 스텝 사이즈와 정밀도에 맞춰 내림
	qty := RoundQuantity(raw, decimal.NewFromFloat(in.StepSize), in.Precision)
	value := qty.Mul(price)

	if qty.IsZero() {
		return Result{Quantity: qty, Notional: value, Skip: true,
			Reason: fmt.Sprintf("수량이 최소 단위(%v) 미만입니다", in.StepSize)}, nil
	}

	if in.Market == domain.Futures && value.LessThan(decimal.NewFromFloat(in.MinNotional)) {
		return Result{Quantity: qty, Notional: value, Skip: true,
			Reason: fmt.Sprintf("주문 가치(%s)가 최소 주문 가치(%v)보다 작습니다", value.StringFixed(4), in.MinNotional)}, nil
	}

	return Result{Quantity: qty, Notional: value}, nil
}

// CloseQuantity는 포지션 수량의 percentage%를 청산 수량으로 계산합니다
func CloseQuantity(positionAmt, percentage, stepSize float64, precision int) decimal.Decimal {
	amt := decimal.NewFromFloat(positionAmt).Abs()
	raw := amt.Mul(decimal.NewFromFloat(percentage)).Div(hundred)
	return RoundQuantity(raw, decimal.NewFromFloat(stepSize), precision)
}

// RoundQuantity는 수량을 step의 배수로 내림한 뒤 precision 자릿수로 절삭합니다
func RoundQuantity(raw, step decimal.Decimal, precision int) decimal.Decimal {
	qty := raw
	if step.IsPositive() {
		steps, _ := raw.QuoRem(step, 0)
		qty = steps.Mul(step)
	}
	if precision >= 0 {
		qty = qty.Truncate(int32(precision))
	}
	if qty.IsNegative() {
		return decimal.Zero
	}
	return qty
}

// PrecisionFromStep은 스텝 사이즈에서 소수점 자릿수를 구합니다 (예: 0.001 -> 3)
func PrecisionFromStep(step float64) int {
	d := decimal.NewFromFloat(step)
	if !d.IsPositive() {
		return 0
	}
	exp := -d.Exponent()
	if exp < 0 {
		return 0
	}
	return int(exp)
}

func validate(in Input) error {
	switch {
	case in.Market != domain.Futures && in.Market != domain.Spot:
		return domain.NewValidationError("market", fmt.Sprintf("지원하지 않는 시장: %q", in.Market))
	case in.Price <= 0:
		return domain.NewValidationError("price", "0보다 커야 합니다")
	case in.SizePct <= 0 || in.SizePct > 100:
		return domain.NewValidationError("size", "0 초과 100 이하여야 합니다")
	case in.Multiplier < 0:
		return domain.NewValidationError("multiplier", "0 이상이어야 합니다")
	case in.Market == domain.Futures && in.Leverage < 1:
		return domain.NewValidationError("leverage", "1 이상이어야 합니다")
	case in.StepSize <= 0:
		return domain.NewValidationError("step_size", "0보다 커야 합니다")
	case in.Balance < 0:
		return domain.NewValidationError("balance", "0 이상이어야 합니다")
	}
	return nil
}
