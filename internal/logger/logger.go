package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

var Log *logrus.Logger

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// Используем JSON формат для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// Failure пишет отказ операции: нарушения бизнес-правил и валидации с уровнем Warn,
// сбои хранилища и окружения с уровнем Error.
func Failure(log logrus.FieldLogger, err error, msg string) {
	entry := log.WithError(err).WithField("code", apperror.CodeOf(err))
	if apperror.IsInfrastructure(err) {
		entry.Error(msg)
		return
	}
	entry.Warn(msg)
}
