// SPDX-License-Identifier: MIT

// Command perf runs the repo's benchmarks and appends the results to a
// jsonl history so regressions show up across commits.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type sample struct {
	NsPerOp     float64 `json:"ns_per_op"`
	BPerOp      float64 `json:"b_per_op,omitempty"`
	AllocsPerOp float64 `json:"allocs_per_op,omitempty"`
}

type runRecord struct {
	Timestamp string            `json:"timestamp"`
	Commit    string            `json:"commit"`
	GoVersion string            `json:"go_version"`
	Packages  []string          `json:"packages"`
	Bench     string            `json:"bench"`
	Benchtime string            `json:"benchtime"`
	Count     int               `json:"count"`
	Samples   map[string]sample `json:"benchmarks"`
}

var benchLine = regexp.MustCompile(`^(Benchmark\S+)\s+\d+\s+([0-9.]+)\s+ns/op(?:\s+([0-9.]+)\s+B/op\s+([0-9.]+)\s+allocs/op)?`)

func main() {
	history := flag.String("history", "perf/history.jsonl", "path to benchmark history jsonl")
	rawDir := flag.String("raw-dir", "perf/runs", "directory for raw benchmark logs")
	packages := flag.String("packages", "./internal/gitx,./internal/pathenv", "comma-separated benchmark packages")
	bench := flag.String("bench", ".", "go test -bench pattern")
	benchtime := flag.String("benchtime", "1x", "go test benchmark time (for example: 1x, 500ms, 2s)")
	count := flag.Int("count", 5, "go test benchmark count")
	flag.Parse()

	if err := run(*history, *rawDir, splitCSV(*packages), *bench, *benchtime, *count); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(history, rawDir string, packages []string, bench, benchtime string, count int) error {
	if len(packages) == 0 {
		return fmt.Errorf("no benchmark packages provided")
	}

	args := []string{"test", "-run=^$", "-bench=" + bench, "-benchmem",
		"-benchtime=" + benchtime, fmt.Sprintf("-count=%d", count)}
	args = append(args, packages...)
	cmd := exec.Command("go", args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("benchmark run failed: %w\n%s", err, buf.String())
	}
	raw := buf.String()

	samples, err := parseSamples(raw)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}
	rawFile := filepath.Join(rawDir, time.Now().UTC().Format("20060102T150405Z")+".txt")
	if err := os.WriteFile(rawFile, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("write raw log: %w", err)
	}

	record := runRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Commit:    toolOutput("git", "rev-parse", "--short", "HEAD"),
		GoVersion: toolOutput("go", "version"),
		Packages:  packages,
		Bench:     bench,
		Benchtime: benchtime,
		Count:     count,
		Samples:   samples,
	}

	previous, _ := lastRecord(history)
	if err := appendRecord(history, record); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	fmt.Printf("saved raw benchmark log: %s\n", rawFile)
	fmt.Printf("updated benchmark history: %s\n", history)
	printSummary(record, previous)
	return nil
}

func parseSamples(raw string) (map[string]sample, error) {
	samples := make(map[string]sample)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		match := benchLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if match == nil {
			continue
		}
		s := sample{NsPerOp: parseFloat(match[2])}
		if match[3] != "" {
			s.BPerOp = parseFloat(match[3])
			s.AllocsPerOp = parseFloat(match[4])
		}
		samples[match[1]] = s
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no benchmark metrics found in output")
	}
	return samples, nil
}

func parseFloat(v string) float64 {
	out, _ := strconv.ParseFloat(v, 64)
	return out
}

func toolOutput(name string, args ...string) string {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func splitCSV(in string) []string {
	var out []string
	for _, part := range strings.Split(in, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendRecord(path string, record runRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.Write(append(line, '\n'))
	return err
}

func lastRecord(path string) (*runRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	last := lines[len(lines)-1]
	if last == "" {
		return nil, fmt.Errorf("history file is empty")
	}
	var record runRecord
	if err := json.Unmarshal([]byte(last), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// printSummary prints ns/op per benchmark in stable name order, with the
// delta against the previous history record when one exists.
func printSummary(current runRecord, previous *runRecord) {
	names := make([]string, 0, len(current.Samples))
	for name := range current.Samples {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("benchmark summary (ns/op):")
	for _, name := range names {
		s := current.Samples[name]
		if previous != nil {
			if prev, ok := previous.Samples[name]; ok && prev.NsPerOp != 0 {
				deltaPct := ((s.NsPerOp - prev.NsPerOp) / prev.NsPerOp) * 100
				fmt.Printf("  %-40s %.2f (%+.2f%% vs previous)\n", name, s.NsPerOp, deltaPct)
				continue
			}
		}
		fmt.Printf("  %-40s %.2f\n", name, s.NsPerOp)
	}
}
