package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "replica",
	Short: "트레이딩 시그널을 여러 바이낸스 계정에 복제합니다",
	Long: `replica는 웹훅으로 받은 트레이딩 시그널을 등록된 모든 하위 계정에 복제하고,
거래소 체결 내역을 대조해 청산된 포지션의 실현 손익을 기록합니다.

설정은 환경변수(.env 파일 포함)에서 읽습니다.

예시:
  replica serve
  replica sync
  replica accounts list
  replica accounts import accounts.yaml`,
	SilenceUsage: true,
}

// Execute는 루트 명령을 실행합니다
func Execute() error {
	return rootCmd.Execute()
}
