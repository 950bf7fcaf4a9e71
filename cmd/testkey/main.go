package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/phroun/keypress/keyboard"
)

// Mouse reporting
const (
	mouseEnableSGR    = "\x1b[?1006h" // SGR mouse mode
	mouseEnableBasic  = "\x1b[?1000h" // Basic mouse tracking
	mouseEnableMotion = "\x1b[?1002h" // Button event + motion tracking
	mouseDisable      = "\x1b[?1000l\x1b[?1002l\x1b[?1006l"
)

// Config holds the command line configuration
type Config struct {
	Mouse    bool
	Kitty    bool
	Line     bool
	Debug    bool
	Force    bool
	EscDelay time.Duration
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "testkey",
		Short: "Print decoded key presses from the terminal",
		Long: `testkey puts the terminal in raw mode and prints every key press
as decoded by the keyboard package: its name, modifiers, classified
code and raw byte sequence. Press ctrl+c or ctrl+d to exit.`,
		Example: `  # Show keys
  testkey

  # Also show mouse reports (filtered from the key stream)
  testkey --mouse

  # Decode bytes from a pipe
  printf '\x1b[A\x1b[15~a' | testkey --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, os.Stdin, os.Stdout)
		},
	}

	rootCmd.Flags().BoolVar(&cfg.Mouse, "mouse", false, "Enable mouse reporting (SGR mode)")
	rootCmd.Flags().BoolVar(&cfg.Kitty, "kitty", false, "Enable Kitty keyboard protocol (disambiguate mode)")
	rootCmd.Flags().BoolVar(&cfg.Line, "line", false, "Assemble lines instead of printing keys")
	rootCmd.Flags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&cfg.Force, "force", false, "Run even when stdin is not a terminal")
	rootCmd.Flags().DurationVar(&cfg.EscDelay, "esc-delay", keyboard.DefaultEscapeDelay, "How long a lone ESC waits for the rest of a sequence")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "testkey: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config, in *os.File, out io.Writer) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))

	tty := isatty.IsTerminal(in.Fd())
	if !tty && !cfg.Force {
		return errors.New("stdin is not a terminal (use --force to decode piped input)")
	}

	handler := keyboard.New(keyboard.Options{
		InputReader: in,
		EscapeDelay: cfg.EscDelay,
		Logger:      logger,
	})
	if cfg.Line {
		handler.SetLineMode(true)
		handler.SetEchoWriter(out)
	}

	// Enable terminal modes before starting
	if tty && cfg.Kitty {
		fmt.Fprint(out, ansi.KittyKeyboard(ansi.KittyDisambiguateEscapeCodes, 1))
		fmt.Fprint(out, ansi.RequestKittyKeyboard)
		fmt.Fprint(out, "Kitty keyboard protocol enabled\r\n")
	}
	if tty && cfg.Mouse {
		fmt.Fprint(out, mouseEnableBasic+mouseEnableMotion+mouseEnableSGR)
		fmt.Fprint(out, "Mouse reporting enabled (SGR mode)\r\n")
		handler.OnMouse = func(r keyboard.MouseReport) {
			fmt.Fprintf(out, "%s\r\n", formatMouse(r))
		}
	}

	restore := func() {
		if tty && cfg.Kitty {
			fmt.Fprint(out, ansi.KittyKeyboard(0, 1))
		}
		if tty && cfg.Mouse {
			fmt.Fprint(out, mouseDisable)
		}
	}

	if err := handler.Start(); err != nil {
		restore()
		return errors.Wrap(err, "start keyboard handler")
	}
	defer func() {
		if err := handler.Stop(); err != nil {
			logger.Error("stop keyboard handler", "error", err)
		}
		restore()
	}()

	if cfg.Line {
		fmt.Fprint(out, "Type lines (ctrl+c on an empty prompt to exit):\r\n")
	} else {
		fmt.Fprint(out, "Press keys (ctrl+c or ctrl+d to exit):\r\n")
	}

	for {
		select {
		case ev := <-handler.Keys:
			fmt.Fprintf(out, "%s\r\n", formatEvent(ev))
			if ev.Is("c", keyboard.ModCtrl) || ev.Terminates() {
				return nil
			}
		case line := <-handler.Lines:
			if len(line) == 0 {
				return nil
			}
			fmt.Fprintf(out, "Line: %q\r\n", line)
		case err := <-handler.Errors:
			return err
		case <-handler.Done():
			drainKeys(handler, out)
			return handler.Err()
		}
	}
}

// drainKeys prints key presses decoded before input ended.
func drainKeys(h *keyboard.Handler, out io.Writer) {
	for {
		select {
		case ev := <-h.Keys:
			fmt.Fprintf(out, "%s\r\n", formatEvent(ev))
		default:
			return
		}
	}
}

const keyColumn = 24

func formatEvent(ev keyboard.KeyEvent) string {
	var b strings.Builder
	b.WriteString(runewidth.FillRight(ev.String(), keyColumn))
	if ev.Code != "" {
		fmt.Fprintf(&b, " code=%-10q", ev.Code)
	} else {
		b.WriteString(strings.Repeat(" ", len(" code=")+10))
	}
	fmt.Fprintf(&b, " seq=%q", ev.Sequence)
	return b.String()
}

func formatMouse(r keyboard.MouseReport) string {
	if r.Format == keyboard.MouseFocus {
		if r.FocusIn {
			return runewidth.FillRight("focus in", keyColumn)
		}
		return runewidth.FillRight("focus out", keyColumn)
	}
	action := "press"
	switch {
	case r.Wheel < 0:
		action = "wheel up"
	case r.Wheel > 0:
		action = "wheel down"
	case r.Motion:
		action = "motion"
	case r.Release:
		action = "release"
	}
	desc := fmt.Sprintf("mouse %s %d", action, r.Button)
	return fmt.Sprintf("%s %s @%d,%d", runewidth.FillRight(desc, keyColumn), r.Format, r.X, r.Y)
}
