package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/common"
	"github.com/joseph-ayodele/vehicle-intake/internal/envelope"
	"github.com/joseph-ayodele/vehicle-intake/internal/intake"
	"github.com/joseph-ayodele/vehicle-intake/internal/ocr"
	"github.com/joseph-ayodele/vehicle-intake/internal/vindecode"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		fieldStr = flag.String("field", "", "field to extract: "+strings.ToLower(strings.Join(constants.FieldsAsStringSlice(), "|")))
		image    = flag.String("image", "", "photo to OCR")
		textFile = flag.String("text-file", "", "file holding OCR text, or - for stdin")
		decode   = flag.Bool("decode", false, "decode a readable VIN through NHTSA")
		outcome  = flag.Bool("outcome", false, "print the full intake outcome instead of the result envelope")
	)
	flag.Parse()

	field, ok := constants.ParseField(*fieldStr)
	if !ok {
		printError("Error: --field must be one of %s\n", strings.Join(constants.FieldsAsStringSlice(), ", "))
		os.Exit(2)
	}
	if (*image == "") == (*textFile == "") {
		printError("Error: exactly one of --image or --text-file is required\n")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Intake.ProcessTimeout)
	defer cancel()

	var decoder vindecode.Decoder
	if *decode {
		cfg.VINDecode.Enabled = true
		decoder = vindecode.NewFromConfig(cfg.VINDecode, logger)
	}
	proc := intake.NewProcessor(logger, ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), decoder, 0)

	var out intake.Outcome
	var err error
	if *image != "" {
		out, err = proc.ProcessPhoto(ctx, intake.NewJob(*image, field))
	} else {
		var text string
		text, err = readText(*textFile)
		if err == nil {
			out, err = proc.ProcessText(ctx, field, text)
		}
	}
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	if err := envelope.ValidateResult(out.Result); err != nil {
		logger.Error("result envelope failed validation", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	var v any = out.Result
	if *outcome {
		v = out
	}
	if err := enc.Encode(v); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func readText(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
