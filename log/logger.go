package log

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/synthhealth/datasynth/conf"
	"github.com/synthhealth/datasynth/synth/constants"
)

var (
	Generator logrus.FieldLogger
	Executor  logrus.FieldLogger
	Triggers  logrus.FieldLogger
	Formats   logrus.FieldLogger
)

func init() {
	Generator = Logger(logrus.New(), conf.GetEnv("DATASYNTH_GENERATOR_LOG"),
		"generator", conf.GetEnv("ENVIRONMENT"))
	Executor = Logger(logrus.New(), conf.GetEnv("DATASYNTH_EXECUTOR_LOG"),
		"executor", conf.GetEnv("ENVIRONMENT"))
	Triggers = Logger(logrus.New(), conf.GetEnv("DATASYNTH_TRIGGERS_LOG"),
		"triggers", conf.GetEnv("ENVIRONMENT"))
	Formats = Logger(logrus.New(), conf.GetEnv("DATASYNTH_FORMATS_LOG"),
		"formats", conf.GetEnv("ENVIRONMENT"))
}

func Logger(logger *logrus.Logger, outputFile string,
	component, environment string) logrus.FieldLogger {

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"component":   component,
		"environment": environment,
		"version":     constants.Version})
}
