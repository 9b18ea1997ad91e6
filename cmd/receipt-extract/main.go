package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-extractor/internal/extraction"
	"github.com/zombor/receipt-extractor/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errUsage marks errors where the flag help should be printed
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run extracts one receipt. Text comes from the first positional argument or stdin;
// -image OCRs an image instead.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := ff.NewFlagSet("receipt-extract")
	var (
		imagePath     = fs.StringLong("image", "", "Receipt image or PDF to OCR instead of reading text")
		ocrBackend    = fs.StringLong("ocr", "tesseract", "OCR backend for -image: 'tesseract', 'gemini' or 'ollama'")
		tesseractLang = fs.StringLong("tesseract-lang", "eng", "Tesseract languages, '+' separated")
		tessdata      = fs.StringLong("tessdata", "", "Tesseract tessdata directory (defaults to TESSDATA_PREFIX)")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		ollamaTimeout = fs.DurationLong("ollama-timeout", 120*time.Second, "Ollama request timeout")
		totalStrategy = fs.StringLong("total-strategy", "first", "Total selection: 'first', 'largest' or 'last' keyword match")
		showText      = fs.BoolLong("show-text", "Print the recognized text to stderr")
		verbose       = fs.BoolLong("verbose", "Enable debug logging")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("RECEIPTS")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return nil
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	strategy, err := extraction.ParseTotalStrategy(*totalStrategy)
	if err != nil {
		return err
	}
	extractor := extraction.New(extraction.WithTotalStrategy(strategy))

	var (
		result extraction.Result
		text   string
	)
	if *imagePath != "" {
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		recognizer, err := scanning.NewRecognizer(ctx, scanning.BackendConfig{
			Backend:            *ocrBackend,
			TesseractLanguages: *tesseractLang,
			TessdataPrefix:     *tessdata,
			GeminiKey:          apiKey,
			GeminiModel:        *geminiModel,
			OllamaURL:          *ollamaURL,
			OllamaModel:        *ollamaModel,
			OllamaTimeout:      *ollamaTimeout,
		})
		if err != nil {
			return err
		}
		scanner := scanning.NewTextScanner(*ocrBackend, recognizer, extractor, nil)
		defer scanner.Close()

		result, text, err = scanFile(ctx, scanner, *imagePath)
		if err != nil {
			return err
		}
	} else {
		raw, err := readText(fs.GetArgs(), stdin)
		if err != nil {
			return err
		}
		result, err = extractor.ExtractBytes(raw)
		if err != nil {
			return err
		}
		text = string(raw)
	}

	if *showText {
		fmt.Fprintln(stderr, text)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// readText reads the single positional file, or stdin when there is none or it is "-"
func readText(args []string, stdin io.Reader) ([]byte, error) {
	switch {
	case len(args) > 1:
		return nil, fmt.Errorf("%w: at most one input file", errUsage)
	case len(args) == 1 && args[0] != "-":
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		return data, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
}

func scanFile(ctx context.Context, scanner scanning.Scanner, path string) (extraction.Result, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extraction.Result{}, "", fmt.Errorf("reading image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "image/jpeg"
	}

	rd, err := scanner.ScanReceipt(ctx, data, contentType)
	if err != nil {
		return extraction.Result{}, "", err
	}
	return extraction.Result{
		Merchant:      rd.Merchant,
		Total:         rd.Total,
		TotalResolved: rd.TotalResolved,
		Date:          rd.Date,
	}, rd.RawText, nil
}
