package cron

import (
	"context"
	"log"
	"time"

	"solera/config"
	"solera/services/lifecycle"
	"solera/services/notification"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// Task types enqueued by the periodic scheduler. The lifecycle subsystem owns
// no scheduler of its own; this worker is the deployment's external trigger,
// colocated in the repo, and calls the same service entry points the HTTP
// cron routes expose.
const (
	TypeAutoUpdate   = "lifecycle:auto-update"
	TypeReminders    = "notification:reminders"
	TypeDigestDaily  = "notification:digest-daily"
	TypeDigestWeekly = "notification:digest-weekly"
)

// taskBudget mirrors the wall-clock budget of the HTTP cron routes. A pass
// that overruns returns an error and asynq retries it; per-row atomicity
// makes the retry safe.
const taskBudget = 30 * time.Second

// InitScheduleWorker starts the periodic scheduler and its worker in the
// background. Invocations may overlap with HTTP-triggered passes; the CAS
// status updates and the dedup ledger make that harmless.
func InitScheduleWorker(engine *lifecycle.Engine, notifier *notification.Service) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAutoUpdate, handleAutoUpdate(engine))
	mux.HandleFunc(TypeReminders, handleReminders(notifier))
	mux.HandleFunc(TypeDigestDaily, handleDigest(notifier, false))
	mux.HandleFunc(TypeDigestWeekly, handleDigest(notifier, true))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	register := func(spec, taskType string) {
		if _, err := scheduler.Register(spec, asynq.NewTask(taskType, nil)); err != nil {
			log.Fatalf("[ScheduleWorker] failed to register %s: %v", taskType, err)
		}
	}
	register("@every 1h", TypeAutoUpdate)
	register("@every 1h", TypeReminders)
	register("0 8 * * *", TypeDigestDaily)
	register("0 8 * * 1", TypeDigestWeekly)

	// Start Redis health monitor
	go monitorRedisConnection()

	go func() {
		log.Println("[ScheduleWorker] starting periodic scheduler...")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[ScheduleWorker] scheduler stopped: %v", err)
		}
	}()

	// Start async worker with retry logic
	go func() {
		log.Println("[ScheduleWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ScheduleWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ScheduleWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleAutoUpdate(engine *lifecycle.Engine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		ctx, cancel := context.WithTimeout(ctx, taskBudget)
		defer cancel()

		result, err := engine.Reconcile(ctx, time.Now())
		if err != nil {
			log.Printf("[ScheduleWorker] auto-update failed: %v", err)
			return err
		}
		log.Printf("[ScheduleWorker] auto-update: cancelled=%d finished=%d", result.Cancelled, result.Finished)
		return nil
	}
}

func handleReminders(notifier *notification.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		ctx, cancel := context.WithTimeout(ctx, taskBudget)
		defer cancel()

		result, err := notifier.SendBookingReminders(ctx, time.Now())
		if err != nil {
			log.Printf("[ScheduleWorker] reminders failed: %v", err)
			return err
		}
		log.Printf("[ScheduleWorker] reminders: sent7Day=%d sent24Hour=%d errors=%d",
			result.Sent7Day, result.Sent24Hour, len(result.Errors))
		return nil
	}
}

func handleDigest(notifier *notification.Service, weekly bool) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		ctx, cancel := context.WithTimeout(ctx, taskBudget)
		defer cancel()

		var err error
		if weekly {
			err = notifier.SendWeeklyBookingDigest(ctx, time.Now())
		} else {
			err = notifier.SendDailyBookingDigest(ctx, time.Now())
		}
		if err != nil {
			log.Printf("[ScheduleWorker] digest failed (weekly=%v): %v", weekly, err)
		}
		return err
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[ScheduleWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
