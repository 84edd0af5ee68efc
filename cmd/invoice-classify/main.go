package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/finwatch/invoice-funnel/internal/adapters/smtpd"
	"github.com/finwatch/invoice-funnel/internal/di"
	"github.com/finwatch/invoice-funnel/internal/ports"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run reads one raw message from the input file or stdin and classifies it
func run(flags *di.CLIFlags, logger *zap.Logger, frontend ports.MessageFrontend) error {
	defer logger.Sync()

	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file %s: %w", flags.InputFile, err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	rawData, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}

	msg, err := smtpd.ParseMessage(rawData)
	if err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	if _, err := frontend.ProcessMessage(context.Background(), msg); err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	return nil
}
