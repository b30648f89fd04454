/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// Color codes for terminal output
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorReset  = "\033[0m"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	debugOn atomic.Bool
)

// SetOutput redirects all log lines. Passing nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetDebug toggles Debugf output.
func SetDebug(on bool) {
	debugOn.Store(on)
}

func write(color, level, format string, args ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s[%s] %s %s%s\n", color, level, timestamp, message, colorReset)
}

func Infof(format string, args ...interface{}) {
	write(colorGreen, "INFO", format, args...)
}

func Warnf(format string, args ...interface{}) {
	write(colorYellow, "WARN", format, args...)
}

func Errorf(format string, args ...interface{}) {
	write(colorRed, "ERROR", format, args...)
}

func Debugf(format string, args ...interface{}) {
	if !debugOn.Load() {
		return
	}
	write(colorGray, "DEBUG", format, args...)
}

func Fatalf(format string, args ...interface{}) {
	write(colorRed, "FATAL", format, args...)
	os.Exit(1)
}
