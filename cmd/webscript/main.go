package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/v0xg/webscript/internal/ai"
	"github.com/v0xg/webscript/internal/browser"
	"github.com/v0xg/webscript/internal/crawler"
	"github.com/v0xg/webscript/internal/executor"
	"github.com/v0xg/webscript/internal/gifgen"
	"github.com/v0xg/webscript/internal/steps"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	browserPath string
	headless    bool
	width       int
	height      int
	waitTimeout time.Duration
	profile     string
	record      string
	fps         int
	verbose     bool

	output   string
	provider string
	model    string
)

var _ executor.Session = (*browser.Session)(nil)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "webscript",
		Short: "Run declarative browser automation scripts",
		Long: `webscript drives a Chromium browser through a YAML script of steps:
navigation, clicks, typing, frames, windows and retry loops.

Example:
  webscript run login.yaml
  webscript draft "https://myapp.com" "log in as test@example.com" -o login.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	runCmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Execute a script",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	addBrowserFlags(runCmd)
	runCmd.Flags().DurationVar(&waitTimeout, "wait-timeout", executor.DefaultWaitTimeout, "Default timeout of Wait steps")
	runCmd.Flags().StringVar(&record, "record", "", "Record the run as a GIF to this file")
	runCmd.Flags().IntVar(&fps, "fps", 1, "Frames per second of the recording")

	fmtCmd := &cobra.Command{
		Use:   "fmt <script.yaml>",
		Short: "Validate a script and print it in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE:  formatScript,
	}

	draftCmd := &cobra.Command{
		Use:   "draft <url> <prompt>",
		Short: "Draft a script for a page using AI",
		Args:  cobra.ExactArgs(2),
		RunE:  draftScript,
	}
	addBrowserFlags(draftCmd)
	draftCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	draftCmd.Flags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default: from env or claude)")
	draftCmd.Flags().StringVar(&model, "model", "", "Specific model override")

	rootCmd.AddCommand(runCmd, fmtCmd, draftCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func addBrowserFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&browserPath, "browser-path", os.Getenv("WEBSCRIPT_BROWSER"), "Chromium executable (default: $WEBSCRIPT_BROWSER or auto-detect)")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window")
	cmd.Flags().IntVar(&width, "width", 1280, "Viewport width")
	cmd.Flags().IntVar(&height, "height", 720, "Viewport height")
	cmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("run_id", uuid.NewString())), nil
}

func browserOptions() browser.Options {
	return browser.Options{
		BinPath:    browserPath,
		Headless:   headless,
		Width:      width,
		Height:     height,
		ProfileDir: profile,
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	path := args[0]

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	list, err := steps.Load(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("→ Launching browser... ")
	session, err := browser.Launch(ctx, browserOptions(), logger)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	defer session.Close()
	fmt.Println("done")

	var recorder *gifgen.Recorder
	if record != "" {
		recorder = gifgen.NewRecorder(session, logger)
	}

	exec := executor.New(session, logger, executor.Options{
		WaitTimeout: waitTimeout,
		Observer:    progress(recorder),
	})

	fmt.Printf("→ Running %s (%d steps)\n", path, len(list))
	if err := exec.Run(ctx, list); err != nil {
		return err
	}

	if recorder != nil {
		fmt.Printf("→ Generating GIF (%d frames)... ", len(recorder.Frames()))
		size, err := recorder.Save(record, gifgen.Options{FrameDelay: time.Second / time.Duration(max(fps, 1))})
		if err != nil {
			fmt.Println("failed")
			return fmt.Errorf("GIF generation failed: %w", err)
		}
		fmt.Println("done")
		fmt.Printf("✓ Saved to %s (%.1f MB)\n", record, float64(size)/(1024*1024))
	}

	fmt.Println("✓ Finished")
	return nil
}

// progress prints a line per step and forwards the event to the recorder.
func progress(recorder *gifgen.Recorder) executor.Observer {
	return executor.ObserverFunc(func(ctx context.Context, ev executor.Event) {
		status := "done"
		if ev.Err != nil {
			status = "failed"
		}
		if verbose || ev.Err == nil {
			fmt.Printf("  [%s] %s %s %s (%s)\n", ev.Path, ev.Step.Kind.Tag(), ev.Step.Selector, status, ev.Elapsed.Round(time.Millisecond))
		}
		if recorder != nil {
			recorder.StepDone(ctx, ev)
		}
	})
}

func formatScript(cmd *cobra.Command, args []string) error {
	list, err := steps.Load(args[0])
	if err != nil {
		return err
	}
	out, err := steps.Marshal(list)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func draftScript(cmd *cobra.Command, args []string) error {
	url := args[0]
	prompt := args[1]

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	// Determine AI provider
	selectedProvider := provider
	if selectedProvider == "" {
		selectedProvider = os.Getenv("WEBSCRIPT_DEFAULT_PROVIDER")
		if selectedProvider == "" {
			selectedProvider = "claude"
		}
	}
	aiProvider, err := ai.NewProvider(selectedProvider, model)
	if err != nil {
		return fmt.Errorf("AI provider init failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 1: Map the page
	fmt.Fprintf(os.Stderr, "→ Crawling %s... ", url)
	session, err := browser.Launch(ctx, browserOptions(), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed")
		return err
	}
	defer session.Close()

	if err := session.Navigate(ctx, url); err != nil {
		fmt.Fprintln(os.Stderr, "failed")
		return fmt.Errorf("navigation failed: %w", err)
	}
	pageMap, err := crawler.Map(ctx, session.Page(), crawler.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed")
		return fmt.Errorf("crawl failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "done (found %d interactive elements)\n", len(pageMap.Elements))
	logger.Debug("page map", zap.String("summary", pageMap.Summary()))

	// Step 2: Draft the script
	fmt.Fprintf(os.Stderr, "→ Drafting script via %s... ", selectedProvider)
	list, err := aiProvider.Draft(ctx, pageMap, prompt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed")
		return fmt.Errorf("draft failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "done (%d steps)\n", len(list))

	// the page the draft was made on is where a run has to start
	script := list
	if _, ok := list[0].Kind.(steps.NavigateTo); !ok {
		script = append([]steps.Step{{Kind: steps.NavigateTo{URL: url}}}, list...)
	}

	out, err := steps.Marshal(script)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Saved to %s\n", output)
	return nil
}
