// libparcdemo is a minimal binary wiring the libparc scheduler to a YAML
// config file and a handful of demo periodic tasks. It exists to exercise
// the library end to end: config loading, logger setup, scheduling, and a
// signal-driven graceful shutdown.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bgp59/logrusx"

	"github.com/GlennCScott/Libparc"
	internal "github.com/GlennCScott/Libparc/internal"
)

const (
	configFlagName   = "config"
	instanceDefault  = "libparc"
	defaultPoolSize  = 4
	demoTaskInterval = 5 * time.Second
)

var (
	// Version and GitInfo are normally stamped at build time via -ldflags.
	Version string
	GitInfo string
)

// DemoTaskConfig describes one periodic demo task read from the "tasks"
// section of the config file.
type DemoTaskConfig struct {
	Interval  time.Duration `yaml:"interval"`
	FixedRate bool          `yaml:"fixed_rate"`
}

type demoTasksConfig map[string]*DemoTaskConfig

var (
	versionArg = flag.Bool(
		"version",
		false,
		internal.FormatFlagUsage(`Print the version and exit`),
	)

	configFileArg = flag.String(
		configFlagName,
		fmt.Sprintf("%s-config.yaml", instanceDefault),
		`Config file to load`,
	)

	instanceArg = flag.String(
		"instance",
		"",
		internal.FormatFlagUsage(`Override the "libparc_config.instance" config setting`),
	)

	poolSizeArg = flag.Int(
		"pool-size",
		0,
		internal.FormatFlagUsageDefault(`Override the "libparc_config.scheduler_config.pool_size" config
		setting; 0 defers to the config file, which in turn falls back to
		one worker per available CPU`, internal.DefaultSchedulerPoolSize()),
	)
)

func init() {
	logrusx.EnableLoggerArgs()
}

var log = internal.NewCompLogger("libparcdemo")

func run() int {
	if !flag.Parsed() {
		flag.Parse()
	}

	if *versionArg {
		fmt.Fprintf(os.Stderr, "Version: %s, GitInfo: %s\n", Version, GitInfo)
		return 0
	}

	tasksCfg := demoTasksConfig{
		"heartbeat": {Interval: demoTaskInterval, FixedRate: true},
	}
	cfg, err := internal.LoadConfig(*configFileArg, &tasksCfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
		return 1
	}

	if *instanceArg != "" {
		cfg.Instance = *instanceArg
	}
	logrusx.ApplySetLoggerArgs(cfg.LoggerConfig)
	if err := internal.SetLogger(cfg.LoggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting the logger: %v\n", err)
		return 1
	}

	var shutdownTimer *time.Timer
	if cfg.ShutdownMaxWait > 0 {
		shutdownTimer = time.NewTimer(time.Hour)
		shutdownTimer.Stop()
		defer shutdownTimer.Stop()
	}

	poolSize := *poolSizeArg
	if poolSize <= 0 {
		poolSize = cfg.SchedulerConfig.PoolSize
	}
	if poolSize <= 0 {
		poolSize = internal.DefaultSchedulerPoolSize()
		if poolSize <= 0 {
			poolSize = defaultPoolSize
		}
	}
	runQueueCapacity, err := cfg.SchedulerConfig.ResolvedRunQueueCapacity()
	if err != nil {
		log.Fatal(err)
	}
	sched, err := libparc.NewScheduler(
		poolSize,
		libparc.WithLogger(log),
		libparc.WithRunQueueCapacity(runQueueCapacity),
	)
	if err != nil {
		log.Fatal(err)
	}
	sched.SetRemoveOnCancel(cfg.SchedulerConfig.RemoveOnCancel)
	sched.SetExecuteExistingDelayedTasksAfterShutdown(cfg.SchedulerConfig.ExecuteExistingDelayedTasksAfterShutdown)
	sched.SetContinueExistingPeriodicTasksAfterShutdown(cfg.SchedulerConfig.ContinueExistingPeriodicTasksAfterShutdown)
	defer func() {
		sched.Shutdown()
		sched.Join()
	}()

	for name, taskCfg := range tasksCfg {
		name := name
		taskLog := internal.NewTaskLogger(log, name)
		callable := func(interrupt <-chan struct{}) (string, error) {
			taskLog.Info("firing")
			return name, nil
		}
		var scheduleErr error
		if taskCfg.FixedRate {
			_, scheduleErr = libparc.ScheduleAtFixedRate(sched, callable, libparc.FromDuration(taskCfg.Interval), taskCfg.Interval)
		} else {
			_, scheduleErr = libparc.ScheduleWithFixedDelay(sched, callable, libparc.FromDuration(taskCfg.Interval), taskCfg.Interval)
		}
		if scheduleErr != nil {
			log.Fatalf("task %q: %v", name, scheduleErr)
		}
	}

	log.Infof("Instance: %s, pool size: %d", cfg.Instance, poolSize)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	if cfg.ShutdownMaxWait == 0 {
		log.Fatalf("%s signal received, force exit", sig)
	} else {
		log.Warnf("%s signal received, shutting down", sig)
	}

	if shutdownTimer != nil {
		go func() {
			shutdownTimer.Reset(cfg.ShutdownMaxWait)
			<-shutdownTimer.C
			log.Fatalf("shutdown timed out after %s, force exit", cfg.ShutdownMaxWait)
		}()
	}

	return 0
}

func main() {
	os.Exit(run())
}
