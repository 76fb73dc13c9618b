package libparcinternal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	libparc_testutils "github.com/GlennCScott/Libparc/testutils"
)

func TestShortSrcPath(t *testing.T) {
	for _, tc := range []struct {
		filePath string
		want     string
	}{
		{"/home/user/go/src/mod/pkg/file.go", "pkg/file.go"},
		{"pkg/file.go", "pkg/file.go"},
		{"file.go", "file.go"},
		{"/a/b/c/d.go", "c/d.go"},
	} {
		t.Run(tc.filePath, func(t *testing.T) {
			if got := shortSrcPath(tc.filePath); got != tc.want {
				t.Fatalf("shortSrcPath(%q): got %q, want %q", tc.filePath, got, tc.want)
			}
		})
	}
}

func TestSortLogFieldKeys(t *testing.T) {
	keys := []string{"msg", "zeta", "file", "alpha", "task", "level", "comp", "time"}
	sortLogFieldKeys(keys)
	want := []string{"time", "level", "comp", "task", "file", "alpha", "zeta", "msg"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("field key order mismatch (-want +got):\n%s", diff)
	}
}

func testLogConfig(t *testing.T, cfgData string) {
	libparc_testutils.CollectLog(t, RootLogger)
	libparcConfig, err := LoadConfig("", nil, []byte(strings.ReplaceAll(cfgData, "\t", "  ")))
	if err != nil {
		t.Fatal(err)
	}
	err = SetLogger(libparcConfig.LoggerConfig)
	if err != nil {
		t.Fatal(err)
	}

	log1 := NewCompLogger("Comp1")
	log2 := NewTaskLogger(log1, "Task1")

	log1.Debug("debug test")
	log1.Info("info test")
	log1.Warn("warn test")
	log1.Error("error test")

	log2.Debug("debug test")
	log2.Info("info test")
	log2.Warn("warn test")
	log2.Error("error test")
}

func TestLogConfig(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cfgData string
	}{
		{
			"text_debug",
			`
				libparc_config:
					log_config:
						use_json: false
						level: debug
			`,
		},
		{
			"json_info",
			`
				libparc_config:
					log_config:
						use_json: true
						level: info
			`,
		},
		{
			"no_src_file",
			`
				libparc_config:
					log_config:
						use_json: false
						disable_src_file: true
			`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) { testLogConfig(t, tc.cfgData) })
	}
}
