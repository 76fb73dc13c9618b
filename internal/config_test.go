package libparcinternal

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/huandu/go-clone"
)

type LoadConfigTestCase struct {
	Name              string
	Description       string
	TasksConfig       any
	Data              string
	WantLibparcConfig *LibparcConfig
	WantTasksConfig   any
	WantErr           error
}

type TaskConfigTest struct {
	Id        string        `yaml:"id"`
	Interval  time.Duration `yaml:"interval"`
	FixedRate bool          `yaml:"fixed_rate"`
	Exclude   []string      `yaml:"exclude"`
}

type TasksConfigTest struct {
	Task1 *TaskConfigTest `yaml:"task1"`
	Task2 *TaskConfigTest `yaml:"task2"`
}

func defaultTasksConfig() *TasksConfigTest {
	return &TasksConfigTest{
		Task1: &TaskConfigTest{Id: "task1"},
		Task2: &TaskConfigTest{Id: "task2"},
	}
}

func testLoadConfig(t *testing.T, tc *LoadConfigTestCase) {
	if tc.Description != "" {
		t.Log(tc.Description)
	}
	tasksConfig := clone.Clone(tc.TasksConfig)
	gotLibparcConfig, err := LoadConfig("", tasksConfig, []byte(strings.ReplaceAll(tc.Data, "\t", "  ")))
	if tc.WantErr == nil && err != nil {
		t.Fatal(err)
	}
	if tc.WantErr != nil && err == nil {
		t.Fatalf("err: want %v, got %v", tc.WantErr, err)
	}

	if diff := cmp.Diff(tc.WantLibparcConfig, gotLibparcConfig); diff != "" {
		t.Fatalf("LibparcConfig mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(tc.WantTasksConfig, tasksConfig); diff != "" {
		t.Fatalf("TasksConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLibparcConfig(t *testing.T) {
	tasksData := `
		tasks:
			task1:
				interval: 10s
			task2:
				interval: 20s
	`

	name1 := "libparc_config"
	data1 := `
		libparc_config:
			instance: inst1
			shutdown_max_wait: 7s
	`
	cfg1 := DefaultLibparcConfig()
	cfg1.Instance = "inst1"
	cfg1.ShutdownMaxWait = 7 * time.Second

	name2 := "scheduler_config"
	data2 := `
		libparc_config:
			scheduler_config:
				pool_size: 5
				continue_existing_periodic_tasks_after_shutdown: true
	`
	cfg2 := DefaultLibparcConfig()
	cfg2.SchedulerConfig.PoolSize = 5
	cfg2.SchedulerConfig.ContinueExistingPeriodicTasksAfterShutdown = true

	name3 := "run_queue_capacity"
	data3 := `
		libparc_config:
			scheduler_config:
				run_queue_capacity: 4k
	`
	cfg3 := DefaultLibparcConfig()
	cfg3.SchedulerConfig.RunQueueCapacity = "4k"

	name4 := "log_config"
	data4 := `
		libparc_config:
			log_config:
				level: debug
	`
	cfg4 := DefaultLibparcConfig()
	cfg4.LoggerConfig.Level = "debug"

	for _, tc := range []*LoadConfigTestCase{
		{
			Name:              "default",
			WantLibparcConfig: DefaultLibparcConfig(),
		},
		{
			Name: "libparc_config_empty",
			Data: `
				libparc_config:
			`,
			WantLibparcConfig: DefaultLibparcConfig(),
		},
		{
			Name:              name1,
			Data:              data1,
			WantLibparcConfig: cfg1,
		},
		{
			Name:              name2,
			Data:              data2,
			WantLibparcConfig: cfg2,
		},
		{
			Name:              name3,
			Data:              data3,
			WantLibparcConfig: cfg3,
		},
		{
			Name:              name4,
			Data:              data4,
			WantLibparcConfig: cfg4,
		},
		{
			Name:              name1 + "_plus_tasks",
			Data:              data1 + tasksData,
			WantLibparcConfig: cfg1,
		},
		{
			Name:              "tasks_plus_" + name1,
			Data:              tasksData + data1,
			WantLibparcConfig: cfg1,
		},
	} {
		t.Run(
			tc.Name,
			func(t *testing.T) { testLoadConfig(t, tc) },
		)
	}
}

func TestLoadTasksConfig(t *testing.T) {
	data := `
		tasks:
			task1:
				#id: task1
				interval: 10s
				exclude: ["foo", "bar"]
			task2:
				id: tasktwo
				interval: 20s
				fixed_rate: true
	`
	wantTasksConfig := defaultTasksConfig()
	wantTasksConfig.Task1.Interval = 10 * time.Second
	wantTasksConfig.Task1.Exclude = []string{"foo", "bar"}
	wantTasksConfig.Task2.Id = "tasktwo"
	wantTasksConfig.Task2.Interval = 20 * time.Second
	wantTasksConfig.Task2.FixedRate = true
	tc := &LoadConfigTestCase{
		Name:              "tasks_config",
		Description:       "Test loading the tasks section",
		TasksConfig:       defaultTasksConfig(),
		Data:              data,
		WantLibparcConfig: DefaultLibparcConfig(),
		WantTasksConfig:   wantTasksConfig,
		WantErr:           nil,
	}
	t.Run(
		tc.Name,
		func(t *testing.T) { testLoadConfig(t, tc) },
	)
}

func TestResolvedRunQueueCapacity(t *testing.T) {
	for _, tc := range []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "128", want: 128},
		{raw: "4k", want: 4096},
		{raw: "bogus", wantErr: true},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			cfg := DefaultSchedulerConfig()
			cfg.RunQueueCapacity = tc.raw
			got, err := cfg.ResolvedRunQueueCapacity()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ResolvedRunQueueCapacity(%q): want error", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("ResolvedRunQueueCapacity(%q): got %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}
