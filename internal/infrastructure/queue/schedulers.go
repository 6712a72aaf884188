package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Eoic/Shelf/internal/config"
	"github.com/Eoic/Shelf/internal/shared"
	"github.com/Eoic/Shelf/pkg/logger"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// Cron specs cho maintenance jobs. Override được qua env để vận hành
// có thể đổi lịch mà không rebuild.
const (
	defaultSweepTempSpec = "0 3 * * *"  // daily 3 AM, low traffic
	defaultFailStuckSpec = "30 * * * *" // hourly, stuck rows không được nằm lâu
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisAddress string, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterMaintenanceJobs đăng ký toàn bộ cron jobs của worker
func (s *Scheduler) RegisterMaintenanceJobs() error {
	if err := s.registerSweepTempUploadsJob(); err != nil {
		return err
	}

	if err := s.registerFailStuckBooksJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Sweep Temp Uploads (Daily at 3 AM)
// ================================================
// Ingestion tự dọn temp file của nó trên mọi exit path; sweep chỉ bắt
// file mồ côi (worker crash, task mất sau enqueue).
func (s *Scheduler) registerSweepTempUploadsJob() error {
	payload, err := json.Marshal(shared.SweepTempUploadsPayload{
		OlderThanHours: s.jobConfig.TempSweepAfterHours,
	})
	if err != nil {
		return err
	}

	spec, err := validateCronSpec(defaultSweepTempSpec)
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSweepTempUploads, payload)

	_, err = s.scheduler.Register(
		spec,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register SweepTempUploads job", err)
		return err
	}

	logger.Info("✓ Registered SweepTempUploads: daily at 3 AM", map[string]interface{}{
		"older_than_hours": s.jobConfig.TempSweepAfterHours,
	})
	return nil
}

// ================================================
// JOB 2: Fail Stuck Books (Hourly at :30)
// ================================================
// Row kẹt ở processing nghĩa là worker chết giữa pipeline. Janitor
// chuyển chúng sang failed với "Processing timed out" để client thôi polling.
func (s *Scheduler) registerFailStuckBooksJob() error {
	payload, err := json.Marshal(shared.FailStuckBooksPayload{
		OlderThanHours: s.jobConfig.StuckAfterHours,
	})
	if err != nil {
		return err
	}

	spec, err := validateCronSpec(defaultFailStuckSpec)
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeFailStuckBooks, payload)

	_, err = s.scheduler.Register(
		spec,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register FailStuckBooks job", err)
		return err
	}

	logger.Info("✓ Registered FailStuckBooks: hourly", map[string]interface{}{
		"older_than_hours": s.jobConfig.StuckAfterHours,
	})
	return nil
}

// validateCronSpec parse spec trước khi đưa vào asynq để fail sớm lúc startup
// thay vì silent mis-schedule
func validateCronSpec(spec string) (string, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return spec, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
