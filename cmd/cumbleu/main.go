// Command cumbleu computes cumulative 4-gram BLEU with the Moses
// multi-bleu.perl script over whole corpora (no line cap).
//
// Usage:
//
//	go run ./cmd/cumbleu -ref ref0.txt [-ref ref1.txt ...] -hyp hyp.txt [-raw]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/mteval"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/logger"
)

func main() {
	var refs config.ListFlag
	configPath := flag.String("config", "", "path to config file")
	flag.Var(&refs, "ref", "reference corpus (repeatable)")
	hyp := flag.String("hyp", "", "hypothesis corpus")
	raw := flag.Bool("raw", false, "print the script's full report instead of the score")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cumbleu: %v\n", err)
		os.Exit(apperrors.ExitInput)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *hyp == "" {
		fmt.Fprintln(os.Stderr, "cumbleu: -hyp is required")
		os.Exit(apperrors.ExitInput)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := mteval.NewMultiBleu(cfg.Scorer).Run(ctx, refs, *hyp)
	if err != nil {
		var scorerErr *mteval.ScorerError
		if errors.As(err, &scorerErr) {
			fmt.Fprint(os.Stderr, scorerErr.Diagnostics())
		}
		fmt.Fprintf(os.Stderr, "cumbleu: %v\n", err)
		stop()
		os.Exit(apperrors.ExitCode(err))
	}

	if *raw {
		fmt.Print(res.Output)
		return
	}
	fmt.Printf("%.2f\n", res.Score)
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
