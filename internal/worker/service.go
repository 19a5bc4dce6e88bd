package worker

import (
	"context"
	"errors"
	"time"

	"github.com/forknet/forknet/internal/config"
	"github.com/forknet/forknet/internal/logger"
	"github.com/forknet/forknet/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	timeoutSweepInterval  = time.Minute
	timeoutSweepBatchSize = 100
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.OrderService != nil {
		go s.runTimeoutSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runTimeoutSweepLoop 周期巡检配送超时订单。延迟任务在队列不可用或
// 进程重启时可能丢失，巡检作为兜底保证超时订单最终退款。
func (s *Service) runTimeoutSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.OrderService == nil {
		return
	}
	runOnce := func() {
		count, err := s.consumer.OrderService.SweepTimedOut(timeoutSweepBatchSize)
		if err != nil {
			logger.Warnw("worker_timeout_sweep_failed", "error", err)
			return
		}
		if count > 0 {
			logger.Infow("worker_timeout_sweep_refunded", "count", count)
		}
	}
	runOnce()

	ticker := time.NewTicker(timeoutSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
