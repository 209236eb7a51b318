package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New 创建 JSON 格式的 slog 日志器并设为默认
// filePath 非空时写入按大小滚动的日志文件，否则输出到标准输出
func New(level, filePath string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var output io.Writer = os.Stdout
	if filePath != "" {
		output = &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 3,
			Compress:   true,
			LocalTime:  true,
		}
	}

	l := slog.New(slog.NewJSONHandler(output, opts))
	slog.SetDefault(l)
	return l
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
