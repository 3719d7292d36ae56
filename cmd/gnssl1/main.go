// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	m "github.com/mkhts/gnssl1"
)

func main() {
	args, err := parseArgs()
	if err != nil {
		flag.Usage()
		os.Exit(1)
	}

	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

// cmdOpt holds the parsed command line arguments. Values loaded from
// a -config JSON file fill in the output path and verbosity only where
// -o is empty and -v is zero; a positional input file replaces the
// configured one.
type cmdOpt struct {
	inFn       string
	outFn      string
	configFn   string
	verbosity  m.DebugLevel
	noPosHeader bool
}

// runApplication loads the tokenized RTCM input, drives the pipeline,
// and writes the receiver track to the output file.
func runApplication(args cmdOpt) error {
	lines, err := readInput(args.inFn)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	result, err := m.Run(lines)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	out, err := prepareOutput(args)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer closeOutput(out)

	if !args.noPosHeader {
		printPosHeader(out, os.Args[0], args.inFn)
	}
	printResults(out, result)

	if m.DBG_ >= 1 {
		m.PrintA("--- summary ---\n")
		m.PrintA("malformed=%d capacityDropped=%d ephemerisMissing=%d numericsSkipped=%d singularEpochs=%d\n",
			result.Summary.Malformed, result.Summary.CapacityDropped, result.Summary.EphemerisMissing,
			result.Summary.NumericsSkipped, result.Summary.SingularEpochs)
	}

	return nil
}

// readInput reads the tokenized RTCM message file, one message per line.
func readInput(fn string) ([]string, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func prepareOutput(args cmdOpt) (io.WriteCloser, error) {
	if len(args.outFn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(args.outFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func closeOutput(w io.WriteCloser) {
	if w != nil {
		w.Close()
	}
}

func printPosHeader(w io.Writer, cmd, inFn string) {
	fmt.Fprintf(w, "%% program   : %s\n", filepath.Base(cmd))
	fmt.Fprintf(w, "%% input     : %s\n", inFn)
	fmt.Fprintf(w, "%%  GPST-ms          x-ecef(m)          y-ecef(m)          z-ecef(m)   latitude(deg)  longitude(deg)   height(m)  ns  gdop\n")
}

func printResults(w io.Writer, result *m.Result) {
	for _, e := range result.Epochs {
		fmt.Fprintf(w, "%12.0f %18.4f %18.4f %18.4f %15.9f %15.9f %11.4f %3d %6.2f\n",
			e.TimeMs, e.ECEF.X, e.ECEF.Y, e.ECEF.Z, e.LLA.LatDeg(), e.LLA.LonDeg(), e.LLA.Hei, e.NumSats, e.GDOP)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// parseArgs parses the command line, using a -config JSON file (if
// given) for any setting left empty (or, for -v, zero) on the command
// line.
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s [Options] input.txt

[Options]
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.StringVar(&a.configFn, "config", "", "Path to an optional JSON config file providing defaults for -o and -v.")
	flag.StringVar(&a.outFn, "o", "", "Output pos file path. If not specified, output to stdout.")
	flag.BoolVar(&a.noPosHeader, "nh", false, "Do not output header section of pos file.")
	flag.Var(&a.verbosity, "v", "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display), 3(more detailed), 4(most detailed)")
	flag.Parse()

	if a.configFn != "" {
		cfg, cfgErr := m.GetJSONConfigFromFile(a.configFn)
		if cfgErr != nil {
			return a, fmt.Errorf("failed to load config file: %w", cfgErr)
		}
		if a.outFn == "" {
			a.outFn = cfg.OutputFile
		}
		if int(a.verbosity) == 0 {
			a.verbosity = m.DebugLevel(cfg.Verbosity)
			m.DBG_ = cfg.Verbosity
		}
		if a.inFn == "" {
			a.inFn = cfg.InputFile
		}
	}

	if flag.NArg() == 1 {
		a.inFn = flag.Arg(0)
	}
	if a.inFn == "" {
		return a, fmt.Errorf("no input file specified")
	}

	return a, nil
}
