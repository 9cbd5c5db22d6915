package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"library-lite/internal/config"
	"library-lite/internal/shared"
	"library-lite/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
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

type scheduledJob struct {
	name     string
	cronspec string
	taskType string
	queue    string
	timeout  time.Duration
}

func (s *Scheduler) jobs() []scheduledJob {
	return []scheduledJob{
		{"OverdueSweep", s.jobConfig.OverdueSweepCron, shared.TypeOverdueSweep, shared.QueueHigh, 5 * time.Minute},
		{"DueReminders", s.jobConfig.DueReminderCron, shared.TypeDueReminders, shared.QueueDefault, 10 * time.Minute},
		{"ReservationExpirySweep", s.jobConfig.ReservationExpiryCron, shared.TypeReservationExpirySweep, shared.QueueDefault, 5 * time.Minute},
		{"MembershipReminders", s.jobConfig.MembershipReminderCron, shared.TypeMembershipReminders, shared.QueueLow, 10 * time.Minute},
	}
}

// RegisterJobs đăng ký tất cả scheduled jobs. Cron spec rỗng thì job bị tắt.
func (s *Scheduler) RegisterJobs() error {
	payload, err := json.Marshal(shared.SweepPayload{})
	if err != nil {
		return err
	}

	for _, job := range s.jobs() {
		if job.cronspec == "" {
			logger.Info("Scheduled job disabled", map[string]interface{}{"job": job.name})
			continue
		}

		task := asynq.NewTask(job.taskType, payload)
		if _, err := s.scheduler.Register(
			job.cronspec,
			task,
			asynq.Queue(job.queue),
			asynq.MaxRetry(1),
			asynq.Timeout(job.timeout),
		); err != nil {
			logger.Error("Failed to register "+job.name+" job", err)
			return err
		}

		logger.Info("✓ Registered scheduled job", map[string]interface{}{
			"job":  job.name,
			"cron": job.cronspec,
		})
	}
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
