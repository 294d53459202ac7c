package wiki

import (
	"fmt"
	"log/slog"
	"strings"
)

// restyLogger routes resty's printf-style diagnostics into slog
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(restyMessage(format, v), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(restyMessage(format, v), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(restyMessage(format, v), "component", "resty")
}

func restyMessage(format string, v []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
