package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Logger struct {
	mu sync.Mutex
	l  *log.Logger
	lv int
}

const (
	DEBUG = iota
	INFO
	WARN
	ERROR
	FATAL
)

var tagColors = map[int]*color.Color{
	DEBUG: color.New(color.FgHiBlack),
	INFO:  color.New(color.FgCyan),
	WARN:  color.New(color.FgYellow),
	ERROR: color.New(color.FgRed),
	FATAL: color.New(color.FgRed, color.Bold),
}

var Log = NewLogger(os.Stdout, INFO)

func InitLogger(level int) {
	Log = NewLogger(os.Stdout, level)
}

func NewLogger(w io.Writer, level int) *Logger {
	return &Logger{
		l:  log.New(w, "", 0),
		lv: level,
	}
}

// ParseLevel maps a level name to its constant, defaulting to INFO.
func ParseLevel(name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

func (lg *Logger) log(level int, tag, msg string, args ...any) {
	if lg == nil || level < lg.lv {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	lg.mu.Lock()
	lg.l.Printf("%s [%s] %s\n", ts, tagColors[level].Sprint(tag), fmt.Sprintf(msg, args...))
	lg.mu.Unlock()
	if level == FATAL {
		os.Exit(1)
	}
}

func (lg *Logger) Debug(m string, a ...any) { lg.log(DEBUG, "DEBUG", m, a...) }
func (lg *Logger) Info(m string, a ...any)  { lg.log(INFO, "INFO", m, a...) }
func (lg *Logger) Warn(m string, a ...any)  { lg.log(WARN, "WARN", m, a...) }
func (lg *Logger) Error(m string, a ...any) { lg.log(ERROR, "ERROR", m, a...) }
func (lg *Logger) Fatal(m string, a ...any) { lg.log(FATAL, "FATAL", m, a...) }
