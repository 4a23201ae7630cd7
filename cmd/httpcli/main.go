package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Amr-9/corehttp/internal/debug"
	"github.com/Amr-9/corehttp/internal/report"
	"github.com/Amr-9/corehttp/internal/tui"
	"github.com/Amr-9/corehttp/pkg/httpclient"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("\n❌ Fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	runtime.GOMAXPROCS(runtime.NumCPU())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\n⚠️  interrupted, shutting down...")
		os.Exit(130)
	}()

	var (
		url         string
		method      string
		endpoint    string
		concurrency int
		count       int
		timeoutStr  string
		debugMode   bool
	)

	flag.StringVar(&url, "url", "", "Base URL of the target API")
	flag.StringVar(&method, "method", "", "HTTP method (GET, POST, ...)")
	flag.StringVar(&endpoint, "endpoint", "/", "Endpoint path appended to the base URL")
	flag.IntVar(&concurrency, "concurrency", 0, "Number of concurrent workers")
	flag.IntVar(&count, "count", 0, "Total number of calls to fire")
	flag.StringVar(&timeoutStr, "timeout", "", "Per-request timeout (e.g. 10s)")
	flag.BoolVar(&debugMode, "debug", false, "Run a single verbose dry-run request instead of the TUI")
	flag.BoolVar(&debugMode, "d", false, "Shorthand for -debug")

	flag.Parse()

	var spec *tui.RunSpec
	startRunning := false
	if url != "" {
		spec = &tui.RunSpec{
			BaseURL:     url,
			Method:      "GET",
			Endpoint:    endpoint,
			Concurrency: 10,
			Count:       50,
			Timeout:     10 * time.Second,
		}
		if method != "" {
			spec.Method = method
		}
		if concurrency > 0 {
			spec.Concurrency = concurrency
		}
		if count > 0 {
			spec.Count = count
		}
		if timeoutStr != "" {
			d, err := time.ParseDuration(timeoutStr)
			if err != nil {
				fmt.Printf("invalid -timeout: %v\n", err)
				os.Exit(1)
			}
			spec.Timeout = d
		}
		startRunning = true
	}

	if debugMode {
		if spec == nil {
			fmt.Println("❌ debug mode requires -url")
			os.Exit(1)
		}

		cfg := httpclient.DefaultConfig()
		cfg.BaseURL = spec.BaseURL
		cfg.Timeout = spec.Timeout
		core, err := httpclient.New(cfg)
		if err != nil {
			fmt.Printf("❌ building client: %v\n", err)
			os.Exit(1)
		}
		defer core.Close()

		if err := debug.Run(core, spec.Method, spec.Endpoint, nil, nil); err != nil {
			os.Exit(1)
		}
		return
	}

	cfg := httpclient.DefaultConfig()
	if spec != nil {
		cfg.BaseURL = spec.BaseURL
		cfg.Timeout = spec.Timeout
	}
	core, err := httpclient.New(cfg)
	if err != nil {
		fmt.Printf("❌ building client: %v\n", err)
		os.Exit(1)
	}
	defer core.Close()

	p := tea.NewProgram(tui.NewModel(core, spec, startRunning))
	m, err := p.Run()
	if err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}

	if finalModel, ok := m.(tui.MainModel); ok {
		rep := finalModel.Report()
		if rep.TotalRequests > 0 {
			report.PrintConsoleReport(rep)
			if err := report.SaveJSON("report.json", rep); err != nil {
				fmt.Printf("⚠️  failed to save report.json: %v\n", err)
			} else {
				fmt.Println("\n📊 report saved to report.json")
			}
			if err := report.GenerateHTML(rep, "report.html"); err != nil {
				fmt.Printf("⚠️  failed to generate report.html: %v\n", err)
			} else {
				fmt.Println("📈 report saved to report.html")
			}
		}
	}
}
