// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package stepper

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"go.jetify.com/nilla/internal/envir"
)

// Stepper shows progress for one long-running step. On a terminal it draws a
// spinner; otherwise it prints the start and final messages as plain lines.
type Stepper struct {
	w       io.Writer
	spinner *spinner.Spinner
}

func Start(w io.Writer, format string, a ...any) *Stepper {
	msg := fmt.Sprintf(format, a...)
	if !isTerminal(w) {
		fmt.Fprintf(w, "%s...\n", msg)
		return &Stepper{w: w}
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	if err := s.Color("magenta"); err != nil {
		panic(err)
	}
	s.Suffix = " " + msg
	s.Start()
	return &Stepper{w: w, spinner: s}
}

func (s *Stepper) Stop(format string, a ...any) {
	s.finish(color.BlueString("→"), format, a...)
}

func (s *Stepper) Fail(format string, a ...any) {
	s.finish(color.RedString("✘"), format, a...)
}

func (s *Stepper) Success(format string, a ...any) {
	s.finish(color.GreenString("✓"), format, a...)
}

// Display replaces the message next to the spinner.
func (s *Stepper) Display(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if s.spinner == nil {
		fmt.Fprintf(s.w, "%s\n", msg)
		return
	}
	s.spinner.Suffix = " " + msg
}

func (s *Stepper) finish(symbol, format string, a ...any) {
	line := fmt.Sprintf("%s %s\n", symbol, fmt.Sprintf(format, a...))
	if s.spinner == nil {
		fmt.Fprint(s.w, line)
		return
	}
	s.spinner.FinalMSG = line
	s.spinner.Stop()
}

func isTerminal(w io.Writer) bool {
	if envir.IsCI() {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
