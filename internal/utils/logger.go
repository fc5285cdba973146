// internal/utils/logger.go
package utils

import (
	"io"
	"log"
	"os"
	"strings"
)

// Logger 로깅 기능을 제공하는 구조체
type Logger struct {
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	fatalLogger *log.Logger
	debug       bool
}

// NewLogger 새로운 로거 생성 (LOG_LEVEL=debug 이면 디버그 로그 출력)
func NewLogger() *Logger {
	return NewLoggerWithLevel(os.Getenv("LOG_LEVEL"))
}

// NewLoggerWithLevel 지정한 레벨로 로거 생성
func NewLoggerWithLevel(level string) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		debugLogger: log.New(os.Stdout, "DEBUG: ", flags),
		infoLogger:  log.New(os.Stdout, "INFO: ", flags),
		warnLogger:  log.New(os.Stdout, "WARN: ", flags),
		errorLogger: log.New(os.Stderr, "ERROR: ", flags),
		fatalLogger: log.New(os.Stderr, "FATAL: ", flags),
		debug:       strings.EqualFold(strings.TrimSpace(level), "debug"),
	}
}

// NewDiscardLogger 아무것도 출력하지 않는 로거 (테스트용)
func NewDiscardLogger() *Logger {
	discard := log.New(io.Discard, "", 0)
	return &Logger{
		debugLogger: discard,
		infoLogger:  discard,
		warnLogger:  discard,
		errorLogger: discard,
		fatalLogger: log.New(os.Stderr, "FATAL: ", 0),
	}
}

// IsDebug 디버그 로그 활성화 여부
func (l *Logger) IsDebug() bool {
	return l.debug
}

// Debug 디버그 로그 출력
func (l *Logger) Debug(msg string) {
	if l.debug {
		l.debugLogger.Println(msg)
	}
}

// Debugf 포맷된 디버그 로그 출력
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.debug {
		l.debugLogger.Printf(format, args...)
	}
}

// Info 정보 로그 출력
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(msg)
}

// Infof 포맷된 정보 로그 출력
func (l *Logger) Infof(format string, args ...interface{}) {
	l.infoLogger.Printf(format, args...)
}

// Warn 경고 로그 출력
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(msg)
}

// Warnf 포맷된 경고 로그 출력
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.warnLogger.Printf(format, args...)
}

// Error 에러 로그 출력
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(msg)
}

// Errorf 포맷된 에러 로그 출력
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.errorLogger.Printf(format, args...)
}

// Fatal 치명적 에러 로그 출력 후 프로그램 종료
func (l *Logger) Fatal(msg string) {
	l.fatalLogger.Fatal(msg)
}

// Fatalf 포맷된 치명적 에러 로그 출력 후 프로그램 종료
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.fatalLogger.Fatalf(format, args...)
}
