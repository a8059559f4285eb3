package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/scheduler"
	"github.com/wonny/ygscore/internal/scheduler/jobs"
	"github.com/wonny/ygscore/internal/score"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `유지보수 작업 스케줄러를 관리합니다.

등록되는 작업:
- score_cleanup: 매일 02:00 KST (전일 점수 정리)
- weight_refresh: 매시 정각 (구성비중 캐시 갱신)

Subcommands:
  start - 스케줄러 시작
  list  - 등록된 작업 목록
  run   - 특정 작업 즉시 실행

Example:
  go run ./cmd/ygscore scheduler start
  go run ./cmd/ygscore scheduler run score_cleanup`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler wires the maintenance jobs.
func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, log, err := initBase()
	if err != nil {
		return nil, nil, err
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	cleanup := func() {
		redisClient.Close()
		db.Close()
	}

	scoreRepo := store.NewScoreRepository(db.Pool, log)
	weightRepo := store.NewWeightRepository(db.Pool, log)
	weights := score.NewWeightCache(weightRepo, redis.NewCache(redisClient, "ygscore"), log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewScoreCleanupJob(scoreRepo, log)); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewWeightRefreshJob(weights, log)); err != nil {
		cleanup()
		return nil, nil, err
	}

	return sched, cleanup, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== YG Score Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Printf("Running job %s...\n", jobName)
	if err := sched.RunJob(jobName); err != nil {
		return err
	}

	// RunJob은 비동기라 완료를 조금 기다린다
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	fmt.Println("Job dispatched. Press Ctrl+C to exit.")
	<-quit
	return nil
}
