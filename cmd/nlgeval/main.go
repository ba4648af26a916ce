// Command nlgeval scores a generated corpus against one or more reference
// corpora.
//
// It reports cumulative NIST and BLEU for n = 1..4 (computed by
// mteval-v14c.pl), n-gram entropy and distinct-n for n = 1..4, and the mean
// hypothesis length in tokens. All metrics use the same first n lines. The
// report goes to stdout; logs go to stderr.
//
// Usage:
//
//	go run ./cmd/nlgeval -ref ref0.txt [-ref ref1.txt ...] -hyp hyp.txt [-n-line 500] [-format json]
//	go run ./cmd/nlgeval -check
//	go run ./cmd/nlgeval -leaderboard bleu4 [-top 10] [-sysid name]
//	go run ./cmd/nlgeval -history bleu4 [-limit 20]
//	go run ./cmd/nlgeval -latest -sysid name
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/evaluator"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/mteval"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	var refs config.ListFlag
	configPath := flag.String("config", "", "path to config file")
	flag.Var(&refs, "ref", "reference corpus, one segment per line (repeatable)")
	hyp := flag.String("hyp", "", "hypothesis corpus, one segment per line")
	outDir := flag.String("out", "", "directory for the generated mteval XML documents (default from config)")
	nLine := flag.Int("n-line", -1, "evaluate only the first n lines; 0 evaluates all (default from config)")
	systemID := flag.String("sysid", "", "system identifier recorded with the result (default from config)")
	format := flag.String("format", "text", "report format: text or json")
	check := flag.Bool("check", false, "check the scorer and enabled sinks, then exit")
	var q query
	flag.StringVar(&q.Leaderboard, "leaderboard", "", "print the redis leaderboard (bleu4, nist4 or entropy4) and exit")
	flag.Int64Var(&q.Top, "top", 10, "number of systems shown by -leaderboard")
	flag.StringVar(&q.History, "history", "", "print stored postgres scores for a metric such as bleu4, newest first, and exit")
	flag.IntVar(&q.Limit, "limit", 20, "number of runs shown by -history")
	flag.BoolVar(&q.Latest, "latest", false, "print the most recent stored result for -sysid and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return apperrors.ExitInput
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return apperrors.ExitInput
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *check {
		return runCheck(ctx, cfg, os.Stdout)
	}
	if q.active() {
		q.SystemID = *systemID
		if q.SystemID == "" && q.Latest {
			q.SystemID = cfg.Eval.SystemID
		}
		if err := runQuery(ctx, cfg, q, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "nlgeval: %v\n", err)
			return apperrors.ExitCode(err)
		}
		return apperrors.ExitOK
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "unknown -format %q (want text or json)\n", *format)
		return apperrors.ExitInput
	}

	req := evaluator.Request{
		References: refs,
		Hypothesis: *hyp,
		OutputDir:  cfg.Eval.OutputDir,
		NLine:      cfg.Eval.NLine,
		SystemID:   cfg.Eval.SystemID,
	}
	if *outDir != "" {
		req.OutputDir = *outDir
	}
	if *nLine >= 0 {
		req.NLine = *nLine
	}
	if *systemID != "" {
		req.SystemID = *systemID
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	opts := []evaluator.Option{evaluator.WithMetrics(m)}

	fanout, closeSinks, err := openSinks(ctx, cfg, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nlgeval: %v\n", err)
		return apperrors.ExitCode(err)
	}
	defer closeSinks()
	if fanout.Len() > 0 {
		opts = append(opts, evaluator.WithPublisher(fanout))
	}

	slog.Info("evaluating", "hypothesis", req.Hypothesis, "references", len(req.References), "n_line", req.NLine)
	result, err := evaluator.New(mteval.NewScorer(cfg.Scorer), opts...).Evaluate(ctx, req)

	if result != nil {
		if werr := writeReport(result, *format); werr != nil {
			slog.Error("writing report", "error", werr)
		}
	}
	if m != nil {
		if werr := m.WriteTextfile(cfg.Metrics.TextfilePath); werr != nil {
			slog.Error("writing metrics textfile", "path", cfg.Metrics.TextfilePath, "error", werr)
		}
	}
	if err != nil {
		var scorerErr *mteval.ScorerError
		if errors.As(err, &scorerErr) {
			fmt.Fprint(os.Stderr, scorerErr.Diagnostics())
		}
		fmt.Fprintf(os.Stderr, "nlgeval: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitOK
}

func writeReport(result *evaluator.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err := fmt.Fprint(os.Stdout, result.Text())
	return err
}
