// Scheduler demo configuration

// The configuration is loaded from a YAML file, with the following structure:
//
//  libparc_config:
//    instance: libparc
//    shutdown_max_wait: 5s
//    log_config:
//      ...
//    scheduler_config:
//      ...
//  tasks:
//     task1:
//       ...
//     task2:
//       ...
//
// The "libparc_config" section maps to the LibparcConfig structure defined
// in this package. The "tasks" section is demo-binary specific and is not
// defined here: it is decoded into whatever structure the caller of
// LoadConfig passes in, primed with default values beforehand.

package libparcinternal

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

const (
	LIBPARC_CONFIG_SECTION_NAME = "libparc_config"
	TASKS_SECTION_NAME          = "tasks"

	LIBPARC_CONFIG_SHUTDOWN_MAX_WAIT_DEFAULT = 5 * time.Second

	SCHEDULER_CONFIG_POOL_SIZE_DEFAULT                                       = 0 // 0 means DefaultSchedulerPoolSize()
	SCHEDULER_CONFIG_REMOVE_ON_CANCEL_DEFAULT                                = true
	SCHEDULER_CONFIG_EXECUTE_EXISTING_DELAYED_TASKS_AFTER_SHUTDOWN_DEFAULT   = false
	SCHEDULER_CONFIG_CONTINUE_EXISTING_PERIODIC_TASKS_AFTER_SHUTDOWN_DEFAULT = false
)

// SchedulerConfig holds the construction parameters and shutdown policy for
// a libparc.Scheduler, as loaded from YAML.
type SchedulerConfig struct {
	// Number of worker goroutines. 0 (the default) means use
	// DefaultSchedulerPoolSize().
	PoolSize int `yaml:"pool_size"`

	// Whether cancelling a queued task removes it from the delay queue
	// immediately rather than leaving it to be discarded at its deadline.
	RemoveOnCancel bool `yaml:"remove_on_cancel"`

	// Whether one-shot delayed tasks still queued at Shutdown time are
	// allowed to run before the scheduler fully stops.
	ExecuteExistingDelayedTasksAfterShutdown bool `yaml:"execute_existing_delayed_tasks_after_shutdown"`

	// Whether periodic tasks keep recurring after Shutdown is called.
	ContinueExistingPeriodicTasksAfterShutdown bool `yaml:"continue_existing_periodic_tasks_after_shutdown"`

	// Human-friendly run queue capacity, e.g. "4k"; "0" or empty means
	// unbounded. Parsed via ResolvedRunQueueCapacity.
	RunQueueCapacity string `yaml:"run_queue_capacity"`
}

// ResolvedRunQueueCapacity parses RunQueueCapacity the same way docker/go-units
// parses byte-size config strings, except the result here is a task count
// rather than a byte count.
func (c *SchedulerConfig) ResolvedRunQueueCapacity() (int, error) {
	if c.RunQueueCapacity == "" {
		return 0, nil
	}
	n, err := units.RAMInBytes(c.RunQueueCapacity)
	if err != nil {
		return 0, fmt.Errorf("run_queue_capacity: %q: %v", c.RunQueueCapacity, err)
	}
	return int(n), nil
}

func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PoolSize:       SCHEDULER_CONFIG_POOL_SIZE_DEFAULT,
		RemoveOnCancel: SCHEDULER_CONFIG_REMOVE_ON_CANCEL_DEFAULT,
		ExecuteExistingDelayedTasksAfterShutdown:   SCHEDULER_CONFIG_EXECUTE_EXISTING_DELAYED_TASKS_AFTER_SHUTDOWN_DEFAULT,
		ContinueExistingPeriodicTasksAfterShutdown: SCHEDULER_CONFIG_CONTINUE_EXISTING_PERIODIC_TASKS_AFTER_SHUTDOWN_DEFAULT,
	}
}

// LibparcConfig is the top-level, ambient configuration for a binary built
// around the scheduler: instance naming, shutdown timing, logging, and the
// scheduler's own construction parameters.
type LibparcConfig struct {
	// Instance name, default "libparc". May be overridden by --instance
	// command line arg.
	Instance string `yaml:"instance"`

	// How long to wait for a graceful shutdown. A negative value signifies
	// indefinite wait and 0 stands for no wait at all (exit abruptly).
	ShutdownMaxWait time.Duration `yaml:"shutdown_max_wait"`

	LoggerConfig    *LoggerConfig    `yaml:"log_config"`
	SchedulerConfig *SchedulerConfig `yaml:"scheduler_config"`
}

func DefaultLibparcConfig() *LibparcConfig {
	return &LibparcConfig{
		Instance:        "libparc",
		ShutdownMaxWait: LIBPARC_CONFIG_SHUTDOWN_MAX_WAIT_DEFAULT,
		LoggerConfig:    DefaultLoggerConfig(),
		SchedulerConfig: DefaultSchedulerConfig(),
	}
}

// LoadConfig loads the configuration from the specified YAML file (or buf,
// for testing) as follows:
//   - the libparc_config section is returned as a *LibparcConfig structure
//   - the tasks section is decoded into the provided tasksConfig structure,
//     expected to have been primed with default values by the caller.
//
// Additionally an error is returned if the configuration could not be
// loaded or parsed.
func LoadConfig(cfgFile string, tasksConfig any, buf []byte) (*LibparcConfig, error) {
	if buf == nil {
		// Normal case, buf is pre-populated only for testing.
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	err := yaml.Unmarshal(buf, &docNode)
	if err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	cfg := DefaultLibparcConfig()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		var toCfg any = nil
		for _, n := range rootNode.Content {
			if n.Kind == yaml.ScalarNode {
				switch n.Value {
				case LIBPARC_CONFIG_SECTION_NAME:
					toCfg = cfg
				case TASKS_SECTION_NAME:
					toCfg = tasksConfig
				}
				continue
			}
			if n.Kind == yaml.MappingNode && toCfg != nil {
				if err = n.Decode(toCfg); err != nil {
					return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
				}
			}
			toCfg = nil
		}
	}

	return cfg, nil
}
