package domain

// AccountConfig는 하위 계정 하나의 설정과 런타임 값을 표현합니다
type AccountConfig struct {
	UserID        string  `json:"user_id" yaml:"user_id"`
	APIKey        string  `json:"api_key" yaml:"api_key"`
	APISecret     string  `json:"api_secret" yaml:"api_secret"`
	Active        bool    `json:"active" yaml:"active"`
	Multiplier    float64 `json:"multiplier" yaml:"multiplier"`         // 시그널 크기에 곱해지는 리스크 배수
	Leverage      int     `json:"leverage" yaml:"leverage"`             // 선물 전용 레버리지
	AvailableFund float64 `json:"available_fund" yaml:"available_fund"` // 마지막으로 조회한 사용 가능 잔고
	LivePnL       float64 `json:"live_pnl" yaml:"live_pnl"`             // 마지막으로 조회한 미실현 손익
}

// Validate는 계정 설정의 불변 조건을 확인합니다
func (a AccountConfig) Validate() error {
	if a.UserID == "" {
		return NewValidationError("user_id", "비어 있을 수 없습니다")
	}
	if a.APIKey == "" || a.APISecret == "" {
		return NewValidationError("credentials", "api_key와 api_secret이 필요합니다")
	}
	if err := ValidateMultiplier(a.Multiplier); err != nil {
		return err
	}
	return ValidateLeverage(a.Leverage)
}

// Redacted는 API 비밀값을 가린 복사본을 반환합니다
func (a AccountConfig) Redacted() AccountConfig {
	a.APISecret = ""
	if len(a.APIKey) > 6 {
		a.APIKey = a.APIKey[:6] + "…"
	}
	return a
}

// ValidateMultiplier는 배수가 0 이상인지 확인합니다
func ValidateMultiplier(m float64) error {
	if m < 0 || m != m {
		return NewValidationError("multiplier", "0 이상이어야 합니다")
	}
	return nil
}

// ValidateLeverage는 레버리지가 1 이상인지 확인합니다
func ValidateLeverage(l int) error {
	if l < 1 {
		return NewValidationError("leverage", "1 이상이어야 합니다")
	}
	return nil
}

// AccountSummary는 선물 계정의 잔고 요약입니다
type AccountSummary struct {
	AvailableBalance float64 // 사용 가능한 잔고
	UnrealizedPnL    float64 // 총 미실현 손익
}
