package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alkime/captions/internal/audio"
	"github.com/alkime/captions/internal/bridge"
	"github.com/alkime/captions/internal/client"
	"github.com/alkime/captions/internal/config"
	"github.com/alkime/captions/internal/content"
	"github.com/alkime/captions/internal/history"
	"github.com/alkime/captions/internal/keyring"
	"github.com/alkime/captions/internal/logger"
	"github.com/alkime/captions/internal/server"
	"github.com/alkime/captions/internal/tui"
	"github.com/alkime/captions/internal/wizard"
	"github.com/alkime/captions/internal/workdir"
	tea "github.com/charmbracelet/bubbletea"
)

// CLI defines the captions command structure.
type CLI struct {
	LogLevel string `flag:"" default:"info" enum:"debug,info,warn,error" help:"Log level"`

	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"1" help:"Run the caption wizard in the terminal"`

	Transcribe TranscribeCmd `cmd:"" help:"Transcribe an audio file"`
	Caption    CaptionCmd    `cmd:"" help:"Format a photo description as a caption"`
	History    HistoryCmd    `cmd:"" help:"Show saved captions"`
	Devices    DevicesCmd    `cmd:"" help:"List available audio devices"`
	Config     ConfigCmd     `cmd:"" help:"Manage configuration"`
	Serve      ServeCmd      `cmd:"" help:"Run the captions backend server"`
}

// UpstreamFlags choose where transcriptions and captions come from: a
// captions server when ServerURL is set, the provider APIs otherwise.
type UpstreamFlags struct {
	ServerURL        string        `flag:"" env:"CAPTIONS_SERVER_URL" help:"Captions server base URL (skips direct API calls)"`
	ServerTimeout    time.Duration `flag:"" default:"2m" help:"Timeout for captions server requests"`
	OpenAIAPIKey     string        `flag:"" env:"OPENAI_API_KEY" help:"OpenAI API key for transcription"`
	AnthropicAPIKey  string        `flag:"" env:"ANTHROPIC_API_KEY" help:"Anthropic API key for captions"`
	AnthropicBaseURL string        `flag:"" env:"ANTHROPIC_BASE_URL" help:"Anthropic-compatible base URL (e.g. LiteLLM)"`
	CaptionModel     string        `flag:"" env:"CAPTION_MODEL" default:"claude-sonnet-4-5" help:"Caption model"`
	WhisperModel     string        `flag:"" env:"WHISPER_MODEL" default:"whisper-1" help:"Transcription model"`
}

func (u *UpstreamFlags) remote(log *slog.Logger) *client.Client {
	return client.New(u.ServerURL, u.ServerTimeout, log)
}

// transcriber resolves the OpenAI key from the flag, env or keychain.
func (u *UpstreamFlags) transcriber(log *slog.Logger) (bridge.Transcriber, error) {
	if u.ServerURL != "" {
		return u.remote(log), nil
	}

	key := keyring.Resolve(u.OpenAIAPIKey, keyring.OpenAI)
	if key == "" {
		return nil, missingKeyError(keyring.OpenAI)
	}

	return content.NewTranscriber(key).WithModel(u.WhisperModel), nil
}

// captioner resolves the Anthropic key from the flag, env or keychain.
func (u *UpstreamFlags) captioner(log *slog.Logger) (wizard.Captioner, error) {
	if u.ServerURL != "" {
		return u.remote(log), nil
	}

	key := keyring.Resolve(u.AnthropicAPIKey, keyring.Anthropic)
	if key == "" {
		return nil, missingKeyError(keyring.Anthropic)
	}

	return content.NewCaptioner(key, u.AnthropicBaseURL).WithModel(u.CaptionModel), nil
}

func missingKeyError(apiKey keyring.APIKey) error {
	return fmt.Errorf("missing %s API key: set it via environment variable, run 'captions config set-key %s <key>' or pass --server-url",
		apiKey.DisplayName(), apiKey.DisplayName())
}

// TUICmd is the default command that runs the wizard.
type TUICmd struct {
	UpstreamFlags `embed:""`

	Flow             string        `flag:"" default:"preview" enum:"preview,auto" help:"preview: review the transcription first; auto: caption right away"`
	ConfirmStartOver bool          `flag:"" help:"Ask before discarding the current caption"`
	MaxDuration      time.Duration `flag:"" default:"10m" help:"Max recording duration (0 for unlimited)"`
	MaxBytes         int64         `flag:"" default:"33554432" help:"Max audio captured per recording in bytes (0 for unlimited)"`
	NoHistory        bool          `flag:"" help:"Do not save captions to the history database"`
}

// Run executes the TUI command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *TUICmd) Run(cli *CLI) error {
	flow, err := wizard.ParseFlow(c.Flow)
	if err != nil {
		return err
	}

	if err := workdir.Prep(); err != nil {
		return fmt.Errorf("failed to prepare working directory: %w", err)
	}

	// stdout belongs to bubbletea, so logs go to a file.
	logPath, err := workdir.FilePath(workdir.LogFile)
	if err != nil {
		return fmt.Errorf("failed to determine log path: %w", err)
	}

	log, logFile := logger.SetupFileLogger(logger.FileOptions{Path: logPath, Level: cli.LogLevel})
	defer logFile.Close()

	transcriber, err := c.transcriber(log)
	if err != nil {
		return err
	}

	captioner, err := c.captioner(log)
	if err != nil {
		return err
	}

	wcfg := wizard.Config{
		Flow:      flow,
		Clipboard: tui.NewOSC52Clipboard(os.Stderr),
		Logger:    log,
	}

	if !c.NoHistory {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		wcfg.Archive = store
	}

	capture := audio.NewCapture(audio.CaptureConfig{MaxBytes: c.MaxBytes}, func(conf audio.DeviceConfig) audio.Device {
		return audio.NewDevice(conf, log)
	}, log)

	host := bridge.NewHost(capture, transcriber, log)
	screen := tui.NewScreen()
	ctrl := wizard.New(wcfg, host, captioner, screen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.New(ctx, tui.Config{
		ConfirmStartOver: c.ConfirmStartOver,
		Recorder: tui.RecorderControls{
			Meter:       capture.Meter(tui.MeterWidth),
			Size:        capture,
			MaxDuration: c.MaxDuration,
		},
		Cancel: cancel,
		Logger: log,
	}, ctrl, screen)

	log.Info("starting caption wizard", "flow", flow, "remote", c.ServerURL != "", "log", logPath)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	// Release the microphone if the user quit mid-recording.
	host.CancelRecording(context.Background())

	fmt.Println("finished. bye!")

	return nil
}

func openHistory() (*history.Store, error) {
	if err := workdir.Prep(); err != nil {
		return nil, fmt.Errorf("failed to prepare working directory: %w", err)
	}

	path, err := workdir.FilePath(workdir.HistoryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to determine history path: %w", err)
	}

	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	return store, nil
}

// TranscribeCmd transcribes an audio file and prints the text.
type TranscribeCmd struct {
	UpstreamFlags `embed:""`

	File string `arg:"" type:"existingfile" help:"Audio file (wav, mp3, ogg, m4a, flac)"`
}

// Run executes the transcribe command.
func (c *TranscribeCmd) Run() error {
	if !content.IsAllowedAudioFile(c.File) {
		return fmt.Errorf("file type not allowed, allowed types: %s",
			strings.Join(content.AllowedAudioExtensions, ", "))
	}

	transcriber, err := c.transcriber(slog.Default())
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	text, err := transcriber.TranscribeFile(ctx, f, filepath.Base(c.File))
	if err != nil {
		return fmt.Errorf("failed to transcribe: %w", err)
	}

	fmt.Println(text)

	return nil
}

// CaptionCmd formats a description given as text or on stdin.
type CaptionCmd struct {
	UpstreamFlags `embed:""`

	Text    string `arg:"" optional:"" help:"Photo description (read from stdin when omitted)"`
	Details string `flag:"" help:"Additional details to fold into the description"`
	JSON    bool   `flag:"" name:"json" help:"Print the caption as JSON"`
	NoSave  bool   `flag:"" help:"Do not save the caption to history"`
}

// Run executes the caption command.
func (c *CaptionCmd) Run() error {
	text, err := descriptionFrom(c.Text, os.Stdin)
	if err != nil {
		return err
	}

	captioner, err := c.captioner(slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	request := wizard.WithDetails(text, c.Details)

	caption, err := captioner.GenerateCaption(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to generate caption: %w", err)
	}

	if !c.NoSave {
		if err := saveCaption(ctx, request, caption); err != nil {
			slog.Warn("caption not saved", "error", err)
		}
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(caption); err != nil {
			return fmt.Errorf("failed to encode caption: %w", err)
		}
		return nil
	}

	fmt.Print(renderCaption(caption))

	return nil
}

// descriptionFrom returns arg, or all of r when arg is empty.
func descriptionFrom(arg string, r io.Reader) (string, error) {
	text := arg
	if strings.TrimSpace(text) == "" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read description from stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no description provided")
	}

	return text, nil
}

func saveCaption(ctx context.Context, transcription string, caption *content.Caption) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(context.WithoutCancel(ctx), history.Entry{
		Transcription:      transcription,
		Caption:            caption.FormattedCaption,
		MissingInformation: caption.MissingInformation,
		FollowUpQuestions:  caption.FollowUpQuestions,
	})
}

// renderCaption lays a caption out under the same headings the model answers with.
func renderCaption(caption *content.Caption) string {
	var sb strings.Builder

	sb.WriteString(content.HeadingCaption + "\n")
	sb.WriteString(caption.FormattedCaption + "\n")

	writeList := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("\n" + heading + "\n")
		for _, item := range items {
			sb.WriteString("- " + item + "\n")
		}
	}

	writeList(content.HeadingMissing, caption.MissingInformation)
	writeList(content.HeadingFollowUps, caption.FollowUpQuestions)

	return sb.String()
}

// HistoryCmd lists saved captions or shows one.
type HistoryCmd struct {
	ID    string `arg:"" optional:"" help:"Caption ID to show in full"`
	Limit int    `flag:"" default:"20" help:"How many recent captions to list"`
}

// Run executes the history command.
func (c *HistoryCmd) Run() error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if c.ID != "" {
		entry, err := store.Get(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to load caption %s: %w", c.ID, err)
		}

		fmt.Printf("%s  %s\n\n", entry.ID, entry.CreatedAt.Local().Format(time.DateTime))
		fmt.Print(renderCaption(&content.Caption{
			FormattedCaption:   entry.Caption,
			MissingInformation: entry.MissingInformation,
			FollowUpQuestions:  entry.FollowUpQuestions,
		}))
		fmt.Printf("\nDESCRIPTION\n%s\n", entry.Transcription)

		return nil
	}

	entries, err := store.Recent(ctx, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list captions: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No captions yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Println(historyLine(e))
	}

	return nil
}

func historyLine(e history.Entry) string {
	caption := strings.Join(strings.Fields(e.Caption), " ")
	if runes := []rune(caption); len(runes) > 80 {
		caption = string(runes[:77]) + "..."
	}

	return fmt.Sprintf("%s  %s  %s", e.ID, e.CreatedAt.Local().Format(time.DateTime), caption)
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	adev := audio.NewDevice(audio.DefaultDeviceConfig(), slog.Default())
	devices, err := adev.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey   SetKeyCmd   `cmd:"" help:"Store an API key in system keychain"`
	ListKeys ListKeysCmd `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai,anthropic" help:"Service name (openai or anthropic)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if keyring.IsSet(apiKey) {
			fmt.Printf("%s: configured\n", apiKey.DisplayName())
		} else {
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'captions config set-key <service> <key>' to configure.")
	}

	return nil
}

// ServeCmd runs the HTTP backend, configured from the environment like the
// standalone server binary, with keychain fallback for API keys.
type ServeCmd struct {
	Port string `flag:"" help:"Listen port (overrides PORT)"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.Port != "" {
		cfg.Port = c.Port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	cfg.OpenAIAPIKey = keyring.Resolve(cfg.OpenAIAPIKey, keyring.OpenAI)
	cfg.AnthropicAPIKey = keyring.Resolve(cfg.AnthropicAPIKey, keyring.Anthropic)

	l := logger.SetupLogger(cfg)

	transcriber := content.NewTranscriber(cfg.OpenAIAPIKey).WithModel(cfg.WhisperModel)
	captioner := content.NewCaptioner(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL).WithModel(cfg.CaptionModel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, l, transcriber, captioner).Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("captions"),
		kong.Description("Dictate a photo description and get a wire-style caption."),
		kong.UsageOnError(),
	)

	// Set up text-based logger for CLI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromFlag(cli.LogLevel),
	})
	slog.SetDefault(slog.New(handler))

	err := ctx.Run(cli)
	ctx.FatalIfErrorf(err)
}

func levelFromFlag(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}

	return l
}
