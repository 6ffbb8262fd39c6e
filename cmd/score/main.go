// Command score runs the landslide risk engine over a file of observations
// without starting the service. Input is either a JSON array of observation
// objects or one object per line; output is one JSON result per line.
//
// Usage:
//
//	go run ./cmd/score \
//	  -model data/model/landslide_model.json \
//	  -mode amplified \
//	  -in observations.jsonl
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/model"
)

type result struct {
	Index                int              `json:"index"`
	LandslideRiskPercent *float64         `json:"landslide_risk_percent,omitempty"`
	RiskLevel            domain.RiskLevel `json:"risk_level,omitempty"`
	TriggeredRules       []string         `json:"triggered_rules,omitempty"`
	Error                string           `json:"error,omitempty"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", "data/model/landslide_model.json", "path to the classifier bundle")
	modeFlag := fs.String("mode", string(domain.ModeAmplified), "scoring mode: plain or amplified")
	in := fs.String("in", "-", "observations file (JSON array or JSON lines); - reads stdin")
	keepGoing := fs.Bool("keep-going", false, "exit 0 even when some observations fail to score")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	mode, err := domain.ParseMode(*modeFlag)
	if err != nil {
		logger.Error("invalid mode", "error", err)
		return 2
	}

	bundle, err := model.Load(*modelPath)
	if err != nil {
		logger.Error("load model bundle", "path", *modelPath, "error", err)
		return 1
	}
	engine, err := domain.NewEngine(bundle, bundle.Schema(), mode)
	if err != nil {
		logger.Error("build scoring engine", "error", err)
		return 1
	}

	src := stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			logger.Error("open input", "error", err)
			return 1
		}
		defer f.Close()
		src = f
	}

	rows, err := readObservations(src)
	if err != nil {
		logger.Error("read observations", "error", err)
		return 1
	}

	out := bufio.NewWriter(stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)

	failed := 0
	for i, fields := range rows {
		res := result{Index: i}
		a, err := score(ctx, engine, fields)
		if err != nil {
			failed++
			res.Error = err.Error()
		} else {
			pct := a.RiskPercent
			res.LandslideRiskPercent = &pct
			res.RiskLevel = a.Level
			res.TriggeredRules = a.TriggeredRules
		}
		if err := enc.Encode(res); err != nil {
			logger.Error("write result", "error", err)
			return 1
		}
	}

	logger.Info("scoring complete", "rows", len(rows), "failed", failed, "model", bundle.Info().Name, "mode", mode)
	if failed > 0 && !*keepGoing {
		return 1
	}
	return 0
}

func score(ctx context.Context, engine *domain.Engine, fields map[string]any) (domain.Assessment, error) {
	obs, err := domain.ParseObservation(fields)
	if err != nil {
		return domain.Assessment{}, err
	}
	return engine.Score(ctx, obs)
}

// readObservations accepts a JSON array of objects or a stream of objects.
func readObservations(r io.Reader) ([]map[string]any, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first == '[' {
		var rows []map[string]any
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode observation array: %w", err)
		}
		return rows, nil
	}

	var rows []map[string]any
	for {
		var fields map[string]any
		err := dec.Decode(&fields)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode observation %d: %w", len(rows), err)
		}
		rows = append(rows, fields)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
