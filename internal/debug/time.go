// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package debug

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.jetify.com/nilla/internal/envir"
)

var timerEnabled, _ = strconv.ParseBool(os.Getenv(envir.NillaPrintExecTime))

type timer struct {
	name string
	time time.Time
}

// Timer measures a named step when NILLA_PRINT_EXEC_TIME is set. The returned
// timer is nil otherwise, and End on a nil timer is a no-op.
func Timer(name string) *timer {
	if !timerEnabled {
		return nil
	}
	return &timer{name: name, time: time.Now()}
}

func (t *timer) End() {
	if t == nil {
		return
	}
	if d := time.Since(t.time); d >= time.Millisecond {
		fmt.Fprintf(os.Stderr, "%q took %s\n", t.name, d)
	}
}
