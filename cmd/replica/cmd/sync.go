package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "정산을 한 번 실행하고 결과를 저장합니다",
	Long: `거래소 체결 내역을 활성 주문과 대조해 청산된 포지션을 기록합니다.
서버가 실행 중이라면 POST /sync를 사용하세요.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary := a.reconciler.RunOnce(ctx)
	if err := a.flusher.Flush(ctx); err != nil {
		return fmt.Errorf("정산 결과 저장 실패: %w", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if len(summary.FailedAccounts) > 0 {
		return fmt.Errorf("%d개 계정 정산 실패", len(summary.FailedAccounts))
	}
	return nil
}
