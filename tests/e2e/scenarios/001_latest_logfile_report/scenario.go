package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"log-analyzer/internal/models"
	"log-analyzer/internal/parsers"

	"github.com/klauspost/compress/gzip"
)

// ### Start - fixed configs (no change)
// These values define deterministic test data generation and must match expected results.
// DO NOT MODIFY: Changing these will break the test's deterministic behavior.
const (
	totalLines     = 40000 // Total number of lines in the latest logfile
	malformedEvery = 50    // Every Nth line is garbage (2% error rate)
	reportSize     = 3     // REPORT_SIZE passed to the analyzer
)

var (
	urls       = []string{"/", "/api/v2/banner/25019354", "/api/v2/group/1769230/banners", "/export/appinstall_raw/2017-06-30/", "/api/1/photogenic_banners/list/?server_name=WIN7RB4"}
	durations  = []float64{0.001, 0.072, 0.133, 0.390, 1.204, 0.628, 0.067}
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"-",
	}
)

// ### End - fixed configs

var tableRegex = regexp.MustCompile(`var table = (\[.*?\]);`)

type urlStat struct {
	URL     string  `json:"url"`
	Count   int64   `json:"count"`
	TimeSum float64 `json:"time_sum"`
	TimeMax float64 `json:"time_max"`
}

// main runs the e2e scenario: 001_latest_logfile_report
//
// This scenario tests the end-to-end flow of a daily analysis run: logfile selection,
// gzip decoding, parsing with a tolerated share of malformed lines, aggregation, ranking,
// report publication, idempotency and the report browser.
//
// What it tests:
//   - The gzip logfile of the latest date wins over an older plain logfile
//   - 2% malformed lines stay under the error threshold
//   - The report holds the reportSize URLs with the largest time_sum, slowest first
//   - A second run leaves the published report untouched
//   - GET /reports of the serve command lists the report
//
// Expected results:
//   - report-2025.12.28.html exists in the report directory
//   - counts and time sums in the report match the generated data
func main() {
	// these configs can be changed to run the scenario
	workDir := ".tmp/e2e"     // Working directory relative to project root
	servePort := 18080       // Port used for the report browser check
	wantCleanWorkDir := true // If true, clean up the working directory before running scenario

	projectRoot, err := findProjectRoot()
	if err != nil {
		fail("%v", err)
	}

	workPath := filepath.Join(projectRoot, workDir)
	logDir := filepath.Join(workPath, "log")
	reportDir := filepath.Join(workPath, "reports")
	configPath := filepath.Join(workPath, "config.json")

	if wantCleanWorkDir {
		fmt.Printf("Cleaning working directory: %s\n", workPath)
		if err := os.RemoveAll(workPath); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: Failed to clean working directory: %v\n", err)
		}
		fmt.Println()
	}
	for _, dir := range []string{logDir, reportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fail("failed to create %s: %v", dir, err)
		}
	}

	fmt.Println("Starting e2e scenario: 001_latest_logfile_report")
	fmt.Printf("WORK_DIR: %s\n", workPath)
	fmt.Printf("TOTAL_LINES: %d\n", totalLines)
	fmt.Printf("MALFORMED_EVERY: %d\n", malformedEvery)
	fmt.Printf("REPORT_SIZE: %d\n", reportSize)
	fmt.Println()

	// Generate logfiles
	content, expected := generateLogfile()
	if err := writeGzip(filepath.Join(logDir, "nginx-access-ui.log-20251228.gz"), content); err != nil {
		fail("failed to write gzip logfile: %v", err)
	}
	older := generateLine(0, "/older/logfile/should/be/ignored") + "\n"
	if err := os.WriteFile(filepath.Join(logDir, "nginx-access-ui.log-20251227"), []byte(older), 0o644); err != nil {
		fail("failed to write plain logfile: %v", err)
	}

	config, _ := json.Marshal(map[string]any{
		"REPORT_SIZE": reportSize,
		"LOG_DIR":     logDir,
		"REPORT_DIR":  reportDir,
		"SERVER":      map[string]any{"PORT": servePort},
	})
	if err := os.WriteFile(configPath, config, 0o644); err != nil {
		fail("failed to write config: %v", err)
	}

	// First run publishes the report
	if err := runAnalyzer(projectRoot, "--config", configPath, "--env-file", ""); err != nil {
		fail("first run failed: %v", err)
	}
	reportPath := filepath.Join(reportDir, "report-2025.12.28.html")
	report, err := os.ReadFile(reportPath)
	if err != nil {
		fail("report was not published: %v", err)
	}
	if err := verifyReport(report, expected); err != nil {
		fail("report mismatch: %v", err)
	}
	fmt.Println("Report content verified")

	// Second run is a no-op
	if err := runAnalyzer(projectRoot, "--config", configPath, "--env-file", ""); err != nil {
		fail("second run failed: %v", err)
	}
	again, err := os.ReadFile(reportPath)
	if err != nil || !bytes.Equal(report, again) {
		fail("second run modified the report")
	}
	fmt.Println("Idempotent second run verified")

	// Report browser lists the report
	if err := verifyServe(projectRoot, configPath, servePort); err != nil {
		fail("report browser check failed: %v", err)
	}
	fmt.Println("Report browser verified")

	fmt.Println("Scenario completed successfully")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}

// findProjectRoot walks up from the working directory until it finds go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod, run from the project root")
		}
		dir = parent
	}
}

func generateLine(i int, url string) string {
	return parsers.FormatLine(&models.LogLineRecord{
		RemoteAddr:    fmt.Sprintf("10.0.%d.%d", i/256%256, i%256),
		RemoteUser:    "-",
		RealIP:        "-",
		TimeLocal:     fmt.Sprintf("28/Dec/2025:03:50:%02d +0300", i%60),
		Request:       "GET " + url + " HTTP/1.1",
		Status:        200,
		BodyBytesSent: int64(100 + i%900),
		Referer:       "-",
		UserAgent:     userAgents[i%len(userAgents)],
		ForwardedFor:  "-",
		RequestID:     fmt.Sprintf("%d-2190034393-4708-9752759", 1766890000+i),
		RBUser:        "dc7161be3",
		RequestTime:   durations[i%len(durations)],
	})
}

// generateLogfile returns the logfile content and the per-URL stats it should produce.
func generateLogfile() (string, map[string]*urlStat) {
	expected := make(map[string]*urlStat)
	var sb strings.Builder

	for i := 0; i < totalLines; i++ {
		if i%malformedEvery == 0 {
			sb.WriteString("malformed line " + fmt.Sprint(i) + "\n")
			continue
		}

		url := urls[i%len(urls)]
		sb.WriteString(generateLine(i, url) + "\n")

		d := durations[i%len(durations)]
		stat, ok := expected[url]
		if !ok {
			stat = &urlStat{URL: url}
			expected[url] = stat
		}
		stat.Count++
		stat.TimeSum = math.Round((stat.TimeSum+d)*1000) / 1000
		stat.TimeMax = math.Max(stat.TimeMax, d)
	}

	return sb.String(), expected
}

func writeGzip(path, content string) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func runAnalyzer(projectRoot string, args ...string) error {
	cmd := exec.Command("go", append([]string{"run", "./cmd/log-analyzer"}, args...)...)
	cmd.Dir = projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func verifyReport(report []byte, expected map[string]*urlStat) error {
	match := tableRegex.FindSubmatch(report)
	if match == nil {
		return fmt.Errorf("table not found in report")
	}
	var got []urlStat
	if err := json.Unmarshal(match[1], &got); err != nil {
		return fmt.Errorf("failed to decode table: %w", err)
	}

	want := make([]*urlStat, 0, len(expected))
	for _, stat := range expected {
		want = append(want, stat)
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].TimeSum != want[j].TimeSum {
			return want[i].TimeSum > want[j].TimeSum
		}
		return want[i].URL < want[j].URL
	})
	want = want[:reportSize]

	if len(got) != len(want) {
		return fmt.Errorf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != *want[i] {
			return fmt.Errorf("row %d: got %+v, want %+v", i, got[i], *want[i])
		}
		fmt.Printf("Row %d: url=%s count=%d time_sum=%.3f\n", i, got[i].URL, got[i].Count, got[i].TimeSum)
	}
	return nil
}

func verifyServe(projectRoot, configPath string, port int) error {
	cmd := exec.Command("go", "run", "./cmd/log-analyzer", "serve", "--config", configPath, "--env-file", "")
	cmd.Dir = projectRoot
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	defer func() {
		_ = cmd.Process.Signal(os.Interrupt)
		_ = cmd.Wait()
	}()

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://localhost:%d/reports", port)

	// go run compiles first, so give the server time to come up
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err != nil {
			time.Sleep(500 * time.Millisecond)
			continue
		}
		defer resp.Body.Close()

		var body struct {
			Reports []struct {
				Name string `json:"name"`
			} `json:"reports"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("failed to decode /reports: %w", err)
		}
		for _, r := range body.Reports {
			if r.Name == "report-2025.12.28.html" {
				return nil
			}
		}
		return fmt.Errorf("report not listed: %+v", body.Reports)
	}
	return fmt.Errorf("server did not answer on %s", url)
}
