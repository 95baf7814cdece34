package cmd

import (
	"context"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/vkdl/internal/downloader"
	"github.com/tanq16/vkdl/internal/extractor"
	"github.com/tanq16/vkdl/internal/output"
	"github.com/tanq16/vkdl/internal/pipeline"
	"github.com/tanq16/vkdl/internal/scheduler"
	"github.com/tanq16/vkdl/internal/selector"
	"github.com/tanq16/vkdl/internal/utils"
)

var (
	workers       int
	resolution    string
	urlListFile   string
	outputDir     string
	chunkSize     int
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	debug         bool
	logFile       string
)

var VKDLVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "vkdl [PAGE_URL...]",
	Short:   "vkdl downloads the videos embedded in web pages",
	Version: VKDLVersion,
	Args:    cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		closer, err := utils.InitLogger(debug, logFile)
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := run(ctx, args)
		stop()
		closer.Close()
		if code != 0 {
			os.Exit(code)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVarP(&workers, "workers", "w", utils.DefaultWorkers, "Number of videos to download in parallel")
	rootCmd.Flags().StringVarP(&resolution, "resolution", "r", selector.PolicyAsk, "Resolution choice: ask, best, worst, or a maximum height like 720")
	rootCmd.Flags().StringVarP(&urlListFile, "urllist", "l", "", "Path to YAML file listing pages (link, optional resolution)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory to save videos in")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", utils.DefaultChunkSize, "Bytes read per chunk while streaming")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout: dialing, TLS and waiting for response headers (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.BrowserUserAgent, "User agent (\"randomize\" picks a browser agent)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Cookie: remixsid=...'); can be specified multiple times")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of the terminal")
}

func buildHTTPConfig() utils.HTTPClientConfig {
	agent := userAgent
	if agent == "randomize" {
		agent = utils.GetRandomUserAgent()
	}
	proxy, user, pass := proxyURL, proxyUsername, proxyPassword
	if proxy != "" && !strings.Contains(proxy, "://") {
		proxy = "http://" + proxy
	}
	parsedProxy, err := u.Parse(proxy)
	if err == nil && parsedProxy.User != nil && user == "" {
		user = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			pass = password
		}
		parsedProxy.User = nil
		proxy = parsedProxy.String()
	}
	return utils.HTTPClientConfig{
		Timeout:       timeout,
		KATimeout:     kaTimeout,
		ProxyURL:      proxy,
		ProxyUsername: user,
		ProxyPassword: pass,
		UserAgent:     agent,
		Headers:       utils.ParseHeaderArgs(headers),
	}
}

func buildSelector() (*selector.Selector, error) {
	if resolution == "" || resolution == selector.PolicyAsk {
		return selector.New(selector.NewConsoleSource(os.Stdin, os.Stdout)), nil
	}
	policy, err := selector.ParsePolicy(resolution)
	if err != nil {
		return nil, err
	}
	return selector.New(policy), nil
}

func run(ctx context.Context, args []string) int {
	entries, err := collectPages(args, urlListFile)
	if err != nil {
		output.PrintError(err.Error())
		return 1
	}
	if len(entries) == 0 {
		output.PrintError("No page URL or URL list provided")
		return 1
	}
	sel, err := buildSelector()
	if err != nil {
		output.PrintError(err.Error())
		return 1
	}
	client, err := utils.NewHTTPClient(buildHTTPConfig())
	if err != nil {
		output.PrintError(fmt.Sprintf("Cannot set up HTTP client: %v", err))
		return 1
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		output.PrintError(fmt.Sprintf("Cannot create output directory: %v", err))
		return 1
	}

	planner := &pipeline.Planner{
		Fetcher:   extractor.NewFetcher(client, extractor.NewScriptExtractor()),
		Selector:  sel,
		OutputDir: outputDir,
	}
	jobs, skipped := planner.Plan(ctx, entries)
	if len(skipped) > 0 {
		output.PrintWarning(fmt.Sprintf("Skipped %d of %d page(s):", len(skipped), len(entries)))
		for _, s := range skipped {
			output.PrintWarning(fmt.Sprintf("  %s %s (%s)", output.StyleSymbols["bullet"], s.URL, s.Kind))
		}
	}
	if len(jobs) == 0 {
		output.PrintError("Nothing to download")
		return 1
	}

	fmt.Println()
	output.PrintHeader("Downloading...")
	log.Debug().Str("op", "cmd/root").Msgf("Starting scheduler with %d jobs", len(jobs))
	outputMgr := output.NewStdoutManager()
	outputMgr.StartDisplay()
	results := scheduler.RunAll(ctx, jobs, workers, downloader.NewStreamDownloader(client, chunkSize), outputMgr)
	outputMgr.StopDisplay()

	for _, r := range results {
		if !r.Success() {
			return 1
		}
	}
	return 0
}
