package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/Zuo-Peng/chat-restore/internal/report"
)

type Kind string

const (
	KindSummary    Kind = "summary"
	KindTranscript Kind = "transcript"
	KindDump       Kind = "dump"
	KindOther      Kind = "other"
)

type Artifact struct {
	Path  string
	Kind  Kind
	Index int    // transcripts only
	Role  string // transcripts only
	Size  int64
	Mtime int64
}

var transcriptRe = regexp.MustCompile(`^conversation_(\d+)_(.+)\.md$`)

// ScanOutputs lists the files of a restore output directory, sorted by
// name. A missing directory yields no artifacts and no error.
func ScanOutputs(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var arts []Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed while listing
		}
		a := Artifact{
			Path:  filepath.Join(dir, e.Name()),
			Kind:  KindOther,
			Index: -1,
			Size:  info.Size(),
			Mtime: info.ModTime().Unix(),
		}
		switch name := e.Name(); {
		case name == report.SummaryFile:
			a.Kind = KindSummary
		case name == report.DumpFile:
			a.Kind = KindDump
		default:
			if m := transcriptRe.FindStringSubmatch(name); m != nil {
				a.Kind = KindTranscript
				a.Index, _ = strconv.Atoi(m[1])
				a.Role = m[2]
			}
		}
		arts = append(arts, a)
	}

	sort.Slice(arts, func(i, j int) bool { return arts[i].Path < arts[j].Path })
	return arts, nil
}

// Count tallies artifacts by kind.
func Count(arts []Artifact) map[Kind]int {
	counts := make(map[Kind]int)
	for _, a := range arts {
		counts[a.Kind]++
	}
	return counts
}
