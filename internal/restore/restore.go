package restore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/chat-restore/internal/parse"
	"github.com/Zuo-Peng/chat-restore/internal/report"
)

type Options struct {
	InputPath string
	OutputDir string
	Now       func() time.Time
	Logger    *slog.Logger
}

type Result struct {
	RunID          string
	TotalRaw       int
	Restored       int
	UserCount      int
	AssistantCount int
	UnknownCount   int
	Report         *report.Report
}

func (r Result) String() string {
	return fmt.Sprintf("raw=%d restored=%d user=%d assistant=%d unknown=%d transcripts=%d failed=%d",
		r.TotalRaw, r.Restored, r.UserCount, r.AssistantCount, r.UnknownCount,
		len(r.Report.Transcripts), len(r.Report.Failed))
}

// Run loads the export, classifies it and writes every artifact.
// A *parse.MalformedInputError aborts before the output directory is touched.
func Run(opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	runID := uuid.New().String()
	log = log.With("run", runID)

	raw, err := parse.LoadExport(opts.InputPath)
	if err != nil {
		return nil, err
	}
	log.Info("export loaded", "path", opts.InputPath, "elements", len(raw))

	c := parse.Classify(raw)
	if c.UnknownCount > 0 {
		log.Warn("records with unrecognized role kept", "count", c.UnknownCount)
	}

	rep, err := report.Write(c, report.Options{
		OutputDir: opts.OutputDir,
		Now:       opts.Now,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:          runID,
		TotalRaw:       c.TotalRaw,
		Restored:       len(c.Records),
		UserCount:      c.UserCount,
		AssistantCount: c.AssistantCount,
		UnknownCount:   c.UnknownCount,
		Report:         rep,
	}
	log.Info("restore complete", "summary", res.String())
	return res, nil
}
