package logger

import "gitlab.com/ddpbfs.net/internal/adapter/logging"

// Logger is the process-wide logger. Init replaces it once config is known.
var Logger = logging.NewZapLogger(false)

func Init(debug bool) {
	Logger = logging.NewZapLogger(debug)
}

func Info(msg string, args ...interface{}) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...interface{}) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...interface{}) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Logger.Warn(msg, args...)
}
