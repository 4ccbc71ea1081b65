package logger

import (
	"fmt"
	"log"
	"os"
)

var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger
	WarnLogger  *log.Logger
)

func init() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// Output depth that attributes the line to the caller of Info/Warn/Error/Debug.
const depth = 2

func Info(format string, v ...interface{}) {
	InfoLogger.Output(depth, fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	ErrorLogger.Output(depth, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	if os.Getenv("ENVIRONMENT") == "development" {
		DebugLogger.Output(depth, fmt.Sprintf(format, v...))
	}
}

func Warn(format string, v ...interface{}) {
	WarnLogger.Output(depth, fmt.Sprintf(format, v...))
}

// Component prefixes every line with a component tag, e.g. "[chat room=12]".
type Component struct {
	tag string
}

func With(component string, kv ...interface{}) *Component {
	tag := component
	for i := 0; i+1 < len(kv); i += 2 {
		tag += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return &Component{tag: "[" + tag + "] "}
}

func (c *Component) Info(format string, v ...interface{}) {
	InfoLogger.Output(depth, c.tag+fmt.Sprintf(format, v...))
}

func (c *Component) Warn(format string, v ...interface{}) {
	WarnLogger.Output(depth, c.tag+fmt.Sprintf(format, v...))
}

func (c *Component) Error(format string, v ...interface{}) {
	ErrorLogger.Output(depth, c.tag+fmt.Sprintf(format, v...))
}

func (c *Component) Debug(format string, v ...interface{}) {
	if os.Getenv("ENVIRONMENT") == "development" {
		DebugLogger.Output(depth, c.tag+fmt.Sprintf(format, v...))
	}
}
