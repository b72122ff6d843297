package logs

import (
	"fmt"
	"runtime"

	"github.com/labstack/gommon/log"
)

// Field is a named value attached to a log line.
type Field struct {
	Name  string
	Value any
}

// Any creates a log field with arbitrary value.
func Any(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Logger writes structured JSON log lines.
type Logger struct {
	*log.Logger
	fields []any
}

func NewLogger() *Logger {
	return &Logger{Logger: log.New("")}
}

// With returns a logger that attaches args to every line.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger,
		fields: append(args, l.fields...),
	}
}

func (l *Logger) Debug(args ...any) {
	l.writej(l.Logger.Debugj, lineFields(args))
}

func (l *Logger) Info(args ...any) {
	l.writej(l.Logger.Infoj, lineFields(args))
}

func (l *Logger) Warn(args ...any) {
	l.writej(l.Logger.Warnj, lineFields(args))
}

func (l *Logger) Error(args ...any) {
	l.writej(l.Logger.Errorj, lineFields(args))
}

func (l *Logger) Fatal(args ...any) {
	l.writej(l.Logger.Fatalj, lineFields(args))
}

func (l *Logger) Debugf(format string, args ...any) {
	l.writej(l.Logger.Debugj, lineFields([]any{fmt.Sprintf(format, args...)}))
}

func (l *Logger) Infof(format string, args ...any) {
	l.writej(l.Logger.Infoj, lineFields([]any{fmt.Sprintf(format, args...)}))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.writej(l.Logger.Warnj, lineFields([]any{fmt.Sprintf(format, args...)}))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.writej(l.Logger.Errorj, lineFields([]any{fmt.Sprintf(format, args...)}))
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.writej(l.Logger.Fatalj, lineFields([]any{fmt.Sprintf(format, args...)}))
}

func (l *Logger) writej(fn func(log.JSON), line log.JSON) {
	if _, file, fileLine, ok := runtime.Caller(2); ok {
		line["file"] = fmt.Sprintf("%s:%d", file, fileLine)
	}
	applyFields(line, l.fields)
	fn(line)
}

func lineFields(args []any) log.JSON {
	line := log.JSON{}
	applyFields(line, args)
	return line
}

func applyFields(line log.JSON, args []any) {
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case string:
			line["message"] = v
		case Field:
			line[v.Name] = v.Value
		case error:
			line["error"] = v.Error()
		default:
			panic(fmt.Errorf("unsupported type: %T", arg))
		}
	}
}
