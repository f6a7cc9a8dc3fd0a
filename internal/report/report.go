package report

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Zuo-Peng/chat-restore/internal/parse"
)

const (
	SummaryFile = "chat_summary.md"
	DumpFile    = "all_chats_consolidated.json"

	LongRecordLength = 1000
	MaxTranscripts   = 10
)

// OutputWriteError reports a failed artifact write. Transcript failures are
// recovered; summary and dump failures abort the run.
type OutputWriteError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write %s %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}

type Options struct {
	OutputDir string
	Now       func() time.Time // defaults to time.Now
	Logger    *slog.Logger     // defaults to slog.Default()
}

// Report lists what Write produced.
type Report struct {
	SummaryPath string
	DumpPath    string
	Transcripts []string
	Failed      []*OutputWriteError
}

// Write renders the summary, the long-record transcripts and the consolidated
// dump into opts.OutputDir, creating it if needed. Existing files are
// overwritten.
func Write(c parse.Classification, opts Options) (*Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, &OutputWriteError{Artifact: "output dir", Path: opts.OutputDir, Err: err}
	}

	rep := &Report{
		SummaryPath: filepath.Join(opts.OutputDir, SummaryFile),
		DumpPath:    filepath.Join(opts.OutputDir, DumpFile),
	}

	summary := RenderSummary(c, now())
	if err := writeArtifact(rep.SummaryPath, func(w *bufio.Writer) error {
		_, err := w.WriteString(summary)
		return err
	}); err != nil {
		return nil, &OutputWriteError{Artifact: "summary", Path: rep.SummaryPath, Err: err}
	}
	log.Debug("summary written", "path", rep.SummaryPath, "records", len(c.Records))

	for _, r := range parse.LongRecords(c.Records, LongRecordLength, MaxTranscripts) {
		path := filepath.Join(opts.OutputDir, TranscriptName(r))
		body := RenderTranscript(r, now())
		err := writeArtifact(path, func(w *bufio.Writer) error {
			_, err := w.WriteString(body)
			return err
		})
		if err != nil {
			werr := &OutputWriteError{Artifact: "transcript", Path: path, Err: err}
			log.Warn("skipping transcript", "index", r.Index, "error", werr)
			rep.Failed = append(rep.Failed, werr)
			continue
		}
		rep.Transcripts = append(rep.Transcripts, path)
	}

	if err := writeArtifact(rep.DumpPath, func(w *bufio.Writer) error {
		return EncodeDump(w, c.Records)
	}); err != nil {
		return nil, &OutputWriteError{Artifact: "consolidated dump", Path: rep.DumpPath, Err: err}
	}
	log.Debug("consolidated dump written", "path", rep.DumpPath)

	return rep, nil
}

// writeArtifact creates path, lets fill write it and always closes the file.
func writeArtifact(path string, fill func(w *bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	return w.Flush()
}
