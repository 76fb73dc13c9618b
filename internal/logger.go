// Logging for the libparc scheduler and the binaries built around it.
//
// One shared root logger, configured once from LoggerConfig, with derived
// sub loggers per component (dispatcher, worker pool, demo binary) and per
// scheduled task. Records carry a short source location so a log line can
// be traced back to the dispatch or cancellation site that emitted it.

package libparcinternal

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LOGGER_CONFIG_USE_JSON_DEFAULT                = true
	LOGGER_CONFIG_LEVEL_DEFAULT                   = "info"
	LOGGER_CONFIG_DISBALE_SRC_FILE_DEFAULT        = false
	LOGGER_CONFIG_LOG_FILE_DEFAULT                = "" // i.e. stderr
	LOGGER_CONFIG_LOG_FILE_MAX_SIZE_MB_DEFAULT    = 10
	LOGGER_CONFIG_LOG_FILE_MAX_BACKUP_NUM_DEFAULT = 1

	LOGGER_DEFAULT_LEVEL    = logrus.InfoLevel
	LOGGER_TIMESTAMP_FORMAT = time.RFC3339
	// Extra field added for component sub loggers:
	LOGGER_COMPONENT_FIELD_NAME = "comp"
	// Extra field added for a scheduled task's own sub logger:
	LOGGER_TASK_FIELD_NAME = "task"
)

type LoggerConfig struct {
	// Whether to structure the logged record in JSON:
	UseJson bool `yaml:"use_json"`
	// Log level name: info, warn, ...:
	Level string `yaml:"level"`
	// Whether to disable the reporting of the source file:line# info:
	DisableSrcFile bool `yaml:"disable_src_file"`
	// Whether to log to a file or, if empty, to stderr:
	LogFile string `yaml:"log_file"`
	// Log file max size, in MB, before rotation; 0 selects lumberjack's own
	// default of 100 MB:
	LogFileMaxSizeMB int `yaml:"log_file_max_size_mb"`
	// How many older log files to keep upon rotation:
	LogFileMaxBackupNum int `yaml:"log_file_max_backup_num"`
}

func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		UseJson:             LOGGER_CONFIG_USE_JSON_DEFAULT,
		Level:               LOGGER_CONFIG_LEVEL_DEFAULT,
		DisableSrcFile:      LOGGER_CONFIG_DISBALE_SRC_FILE_DEFAULT,
		LogFile:             LOGGER_CONFIG_LOG_FILE_DEFAULT,
		LogFileMaxSizeMB:    LOGGER_CONFIG_LOG_FILE_MAX_SIZE_MB_DEFAULT,
		LogFileMaxBackupNum: LOGGER_CONFIG_LOG_FILE_MAX_BACKUP_NUM_DEFAULT,
	}
}

// Logger wraps logrus.Logger with the output accessor the test log
// collector needs to swap stderr for (*testing.T).Log and put it back
// (see testutils.CollectLog).
type Logger struct {
	logrus.Logger
}

func (log *Logger) GetOutput() io.Writer {
	return log.Out
}

// shortSrcPath reduces a caller's absolute source path to its last two
// components, package dir + file. The full path would stamp the build
// machine's directory layout onto every record; package/file.go:line# is
// all a reader of a scheduler log can act on. This module is the only
// source of callers, so no per-importer prefix bookkeeping is needed.
func shortSrcPath(filePath string) string {
	comps := strings.Split(filePath, "/")
	if len(comps) > 2 {
		comps = comps[len(comps)-2:]
	}
	return path.Join(comps...)
}

// Both formatters report the caller as the file:line# field only; the
// function name repeats what the component/task fields already say.
func logCallerPrettyfier(f *runtime.Frame) (function string, file string) {
	return "", fmt.Sprintf("%s:%d", shortSrcPath(f.File), f.Line)
}

// The desired field order is time, level, comp, task, file, then the
// record's own fields alphabetically, with msg last. The fixed fields get
// negative ranks so an unranked field's zero lookup lands in the middle.
var logFieldRank = map[string]int{
	logrus.FieldKeyTime:         -6,
	logrus.FieldKeyLevel:        -5,
	LOGGER_COMPONENT_FIELD_NAME: -4,
	LOGGER_TASK_FIELD_NAME:      -3,
	logrus.FieldKeyFile:         -2,
	logrus.FieldKeyFunc:         -1,
	logrus.FieldKeyMsg:          1,
}

func sortLogFieldKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		rank_i, rank_j := logFieldRank[keys[i]], logFieldRank[keys[j]]
		if rank_i != rank_j {
			return rank_i < rank_j
		}
		return keys[i] < keys[j]
	})
}

var logTextFormatter = &logrus.TextFormatter{
	DisableColors:    true,
	FullTimestamp:    true,
	TimestampFormat:  LOGGER_TIMESTAMP_FORMAT,
	CallerPrettyfier: logCallerPrettyfier,
	SortingFunc:      sortLogFieldKeys,
}

var logJsonFormatter = &logrus.JSONFormatter{
	TimestampFormat:  LOGGER_TIMESTAMP_FORMAT,
	CallerPrettyfier: logCallerPrettyfier,
}

var RootLogger = &Logger{
	Logger: logrus.Logger{
		Out:          os.Stderr,
		Formatter:    logTextFormatter,
		Level:        LOGGER_DEFAULT_LEVEL,
		ReportCaller: true,
	},
}

// logRotatingFileOutput opens logFile via lumberjack for size-capped
// rotation, creating the log dir as needed. A leftover file from a
// previous run is rotated out up front so each run starts a fresh file.
func logRotatingFileOutput(logCfg *LoggerConfig) (io.Writer, error) {
	logDir := path.Dir(logCfg.LogFile)
	if _, err := os.Stat(logDir); err != nil {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			return nil, err
		}
	}
	_, err := os.Stat(logCfg.LogFile)
	forceRotate := err == nil
	logFile := &lumberjack.Logger{
		Filename:   logCfg.LogFile,
		MaxSize:    logCfg.LogFileMaxSizeMB,
		MaxBackups: logCfg.LogFileMaxBackupNum,
	}
	if forceRotate {
		if err := logFile.Rotate(); err != nil {
			return nil, err
		}
	}
	return logFile, nil
}

// Set the logger based on config overridden by command line args, if the
// latter were used:
func SetLogger(logCfg *LoggerConfig) error {
	if logCfg == nil {
		logCfg = DefaultLoggerConfig()
	}

	if logCfg.Level != "" {
		level, err := logrus.ParseLevel(logCfg.Level)
		if err != nil {
			return err
		}
		RootLogger.SetLevel(level)
	}

	if logCfg.UseJson {
		RootLogger.SetFormatter(logJsonFormatter)
	} else {
		RootLogger.SetFormatter(logTextFormatter)
	}

	RootLogger.SetReportCaller(!logCfg.DisableSrcFile)

	switch logCfg.LogFile {
	case "stderr":
		RootLogger.SetOutput(os.Stderr)
	case "stdout":
		RootLogger.SetOutput(os.Stdout)
	case "":
	default:
		out, err := logRotatingFileOutput(logCfg)
		if err != nil {
			return err
		}
		RootLogger.SetOutput(out)
	}

	return nil
}

func NewCompLogger(compName string) *logrus.Entry {
	return RootLogger.WithField(LOGGER_COMPONENT_FIELD_NAME, compName)
}

// NewTaskLogger derives a per-task sub logger from a component logger, so a
// scheduled task's log lines can be filtered by task name without the
// caller hand-building the field name every time it logs.
func NewTaskLogger(compLog *logrus.Entry, taskName string) *logrus.Entry {
	return compLog.WithField(LOGGER_TASK_FIELD_NAME, taskName)
}
