package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/assist-by/replica/internal/config"
	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/storage"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "저장된 하위 계정을 관리합니다",
	Long: `저장소에 있는 하위 계정을 조회하거나 YAML 파일에서 가져옵니다.

가져오기 파일 형식:
  - user_id: alice
    api_key: xxx
    api_secret: yyy
    active: true
    multiplier: 1
    leverage: 5

실행 중인 서버에는 재시작 후 반영됩니다.`,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "계정 목록을 출력합니다 (비밀키 제외)",
	Args:  cobra.NoArgs,
	RunE:  runAccountsList,
}

var accountsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "YAML 파일의 계정을 저장합니다",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsImport,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsImportCmd)
}

// withStore는 설정의 저장소를 열어 fn을 실행합니다
func withStore(ctx context.Context, fn func(storage.Store) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return fn(store)
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(store storage.Store) error {
		accounts, err := store.LoadAccounts(cmd.Context())
		if err != nil {
			return err
		}
		return printAccounts(cmd.OutOrStdout(), accounts)
	})
}

func printAccounts(w io.Writer, accounts []domain.AccountConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER_ID\tAPI_KEY\tACTIVE\tMULTIPLIER\tLEVERAGE\tAVAILABLE\tPNL")
	for _, acc := range accounts {
		acc = acc.Redacted()
		fmt.Fprintf(tw, "%s\t%s\t%t\t%g\t%d\t%.2f\t%.2f\n",
			acc.UserID, acc.APIKey, acc.Active, acc.Multiplier, acc.Leverage, acc.AvailableFund, acc.LivePnL)
	}
	return tw.Flush()
}

func runAccountsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("파일 읽기 실패: %w", err)
	}

	accounts, err := parseAccounts(data)
	if err != nil {
		return err
	}

	return withStore(cmd.Context(), func(store storage.Store) error {
		for _, acc := range accounts {
			if err := store.SaveAccount(cmd.Context(), acc); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d개 계정을 저장했습니다\n", len(accounts))
		return nil
	})
}

// importAccount는 가져오기 파일의 계정 항목입니다. 생략한 배수와 레버리지는 1입니다
type importAccount struct {
	UserID     string   `yaml:"user_id"`
	APIKey     string   `yaml:"api_key"`
	APISecret  string   `yaml:"api_secret"`
	Active     *bool    `yaml:"active"`
	Multiplier *float64 `yaml:"multiplier"`
	Leverage   *int     `yaml:"leverage"`
}

func (a importAccount) config() domain.AccountConfig {
	acc := domain.AccountConfig{
		UserID:     a.UserID,
		APIKey:     a.APIKey,
		APISecret:  a.APISecret,
		Active:     true,
		Multiplier: 1,
		Leverage:   1,
	}
	if a.Active != nil {
		acc.Active = *a.Active
	}
	if a.Multiplier != nil {
		acc.Multiplier = *a.Multiplier
	}
	if a.Leverage != nil {
		acc.Leverage = *a.Leverage
	}
	return acc
}

// parseAccounts는 YAML 계정 목록을 읽고 모두 검증합니다. 하나라도 잘못되면 아무 것도 저장하지 않습니다
func parseAccounts(data []byte) ([]domain.AccountConfig, error) {
	var entries []importAccount
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("YAML 해석 실패: %w", err)
	}

	accounts := make([]domain.AccountConfig, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	var errs []error
	for i, e := range entries {
		acc := e.config()
		if err := acc.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%d번째 계정: %w", i+1, err))
			continue
		}
		if seen[acc.UserID] {
			errs = append(errs, fmt.Errorf("%d번째 계정: 중복된 user_id %q", i+1, acc.UserID))
			continue
		}
		seen[acc.UserID] = true
		accounts = append(accounts, acc)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return accounts, nil
}
