// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uprobec/uprobec/codegen"
	"github.com/uprobec/uprobec/compiler"
	"github.com/uprobec/uprobec/symfs"
)

var (
	flagTracee        string
	flagDebugBinary   string
	flagExtras        string
	flagProgramFile   string
	flagOutput        string
	flagPython        string
	flagPrint         bool
	flagPrintNumbered bool
	flagDryRun        bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [program | @program-file]",
	Short: "compile (and, unless --dry-run, run) a trace DSL program",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompile,
}

func init() {
	f := compileCmd.Flags()
	f.StringVarP(&flagTracee, "tracee", "t", "", "golang binary to trace; BIN or BIN:SYM-BIN for a stripped binary with a separate symbol binary (required)")
	f.StringVarP(&flagDebugBinary, "debug-binary", "d", "", "debug binary to read DWARF from (defaults to the tracee binary, or its SYM-BIN half)")
	f.StringVarP(&flagExtras, "extras", "e", "", "render extras as K=V,K=V (carries sym_pid, real_target, dwarf_path_prefix)")
	f.StringVarP(&flagProgramFile, "program-file", "f", "", "read program text from this file")
	f.StringVarP(&flagOutput, "output", "o", "trace.bcc.py", `output file for the rendered program ("-" for stdout)`)
	f.StringVarP(&flagPython, "python", "p", "python3", "python interpreter used to run the rendered program")
	f.BoolVar(&flagPrint, "print", false, "print the rendered program to stderr before running it")
	f.BoolVar(&flagPrintNumbered, "print-numbered", false, "like --print, but with line numbers")
	f.BoolVar(&flagDryRun, "dry-run", false, "render (and optionally print) the program without running it")
	compileCmd.MarkFlagRequired("tracee")
}

func runCompile(cmd *cobra.Command, args []string) error {
	program, err := loadProgram(args)
	if err != nil {
		return err
	}

	tracee, symBin, _ := strings.Cut(flagTracee, ":")
	debugBinary := flagDebugBinary
	if debugBinary == "" {
		debugBinary = symBin
	}
	if debugBinary == "" {
		debugBinary = tracee
	}

	extras, err := parseExtras(flagExtras)
	if err != nil {
		return err
	}

	rendered, err := compiler.Compile(compiler.Options{
		Program:      program,
		TraceeBinary: tracee,
		DebugBinary:  debugBinary,
		Extras:       extras,
	})
	if err != nil {
		return fmt.Errorf("uprobec: %w", err)
	}

	if flagPrint || flagPrintNumbered {
		fmt.Fprintln(os.Stderr, formatPrinted(rendered, flagPrintNumbered))
	}

	if err := writeOutput(flagOutput, rendered); err != nil {
		return err
	}

	if flagDryRun {
		return nil
	}
	return runHostProgram(tracee, debugBinary, rendered)
}

func loadProgram(args []string) (string, error) {
	var program string
	switch {
	case flagProgramFile != "":
		b, err := os.ReadFile(flagProgramFile)
		if err != nil {
			return "", fmt.Errorf("uprobec: reading program file: %w", err)
		}
		program = string(b)
	case len(args) == 1 && strings.HasPrefix(args[0], "@"):
		b, err := os.ReadFile(strings.TrimPrefix(args[0], "@"))
		if err != nil {
			return "", fmt.Errorf("uprobec: reading program file: %w", err)
		}
		program = string(b)
	case len(args) == 1:
		program = args[0]
	default:
		return "", fmt.Errorf("uprobec: either trace code or a program file is required")
	}
	return strings.TrimSpace(program), nil
}

func parseExtras(raw string) (codegen.Extras, error) {
	extras := codegen.Extras{}
	if raw == "" {
		return extras, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("uprobec: bad extra %q, want K=V", pair)
		}
		extras[k] = v
	}
	return extras, nil
}

func formatPrinted(program string, numbered bool) string {
	if !numbered {
		return program
	}
	lines := strings.Split(program, "\n")
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(": ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func writeOutput(path, rendered string) error {
	if path == "-" {
		fmt.Println(rendered)
		return nil
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("uprobec: writing output: %w", err)
	}
	return nil
}

func runHostProgram(tracee, debugBinary, rendered string) error {
	helper := symfs.NewHelper(debugBinary)
	if err := helper.Spawn(); err != nil {
		return fmt.Errorf("uprobec: %w", err)
	}
	if err := helper.SetupSymfs(tracee); err != nil {
		return fmt.Errorf("uprobec: %w", err)
	}
	defer helper.Teardown()

	host := symfs.NewHostProgram(flagPython, rendered)
	if err := host.Spawn(); err != nil {
		return fmt.Errorf("uprobec: %w", err)
	}

	pid, err := host.Pid()
	if err != nil {
		return fmt.Errorf("uprobec: %w", err)
	}
	done := make(chan struct{})
	go symfs.ProxySignals(pid, done)
	defer close(done)

	return host.Wait()
}
