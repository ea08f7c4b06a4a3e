package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assist-by/replica/internal/api"
	"github.com/assist-by/replica/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "웹훅 서버와 정산/저장 루프를 실행합니다",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	log.Info("replica 시작",
		zap.String("version", version),
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
		zap.Bool("testnet", a.cfg.Binance.UseTestnet),
		zap.Int("accounts", len(a.registry.Snapshot())),
		zap.Int("active_orders", len(a.ledger.Active())))

	if a.cfg.Binance.UseTestnet {
		_ = a.notifier.SendInfo(ctx, "⚠️ 테스트넷 모드로 실행 중입니다. 실제 자산은 사용되지 않습니다.")
	} else {
		_ = a.notifier.SendInfo(ctx, "🚀 replica가 시작되었습니다. 실제 자산이 사용됩니다!")
	}

	server := &http.Server{
		Addr: a.cfg.HTTP.Addr,
		Handler: api.NewRouter(api.Deps{
			Registry:     a.registry,
			Signals:      a.replicator,
			Reconciler:   a.reconciler,
			Accounts:     a.flusher,
			Store:        a.store,
			Gateways:     a.gateways,
			WebhookToken: a.cfg.HTTP.WebhookToken,
			AdminToken:   a.cfg.HTTP.AdminToken,
			MaxWorkers:   a.cfg.App.MaxWorkers,
			Version:      version,
			Log:          log.Named("api"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	schedulers := []*scheduler.Scheduler{
		scheduler.NewScheduler("reconcile", a.cfg.App.ReconcileInterval, a.reconciler, log),
		scheduler.NewScheduler("flush", a.cfg.App.FlushInterval, a.flusher, log),
		scheduler.NewScheduler("refresh", a.cfg.App.BalanceRefreshInterval, a.refresher, log),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP 서버 시작", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 서버 실패: %w", err)
		}
		return nil
	})

	for _, s := range schedulers {
		s := s
		g.Go(func() error {
			if err := s.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("종료 신호 수신, 서버를 정리합니다")

		for _, s := range schedulers {
			s.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()

	// 서버가 멈춘 뒤 남은 변경분을 기록합니다
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.flusher.Flush(flushCtx); err != nil {
		log.Error("종료 전 저장 실패", zap.Error(err))
		_ = a.notifier.SendError(flushCtx, err)
		if runErr == nil {
			runErr = err
		}
	}

	_ = a.notifier.SendInfo(flushCtx, "👋 replica가 정상적으로 종료되었습니다.")
	log.Info("replica 종료")
	return runErr
}
