package open

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/parse"
	"github.com/Zuo-Peng/chat-restore/internal/report"
)

// Target resolves the file that best shows a record: its transcript when
// one was exported for this record, otherwise the consolidated dump at the
// record's entry.
func Target(outputDir string, rec index.RecordRow) (path string, line int, err error) {
	transcript := filepath.Join(outputDir, report.TranscriptName(parse.ClassifiedRecord{
		Index: rec.Index,
		Role:  parse.RoleFromString(rec.Role),
	}))
	if transcriptMatches(transcript, rec) {
		return transcript, 1, nil
	}

	dump := filepath.Join(outputDir, report.DumpFile)
	if _, err := os.Stat(dump); err != nil {
		return "", 0, fmt.Errorf("no restored output for record %d in %s (run restore first)", rec.Index, outputDir)
	}
	line, err = dumpLine(dump, rec.Index)
	if err != nil {
		return "", 0, err
	}
	return dump, line, nil
}

// transcriptMatches reports whether the transcript at path was written for
// rec. A file left over from another export has the same name but a
// different header.
func transcriptMatches(path string, rec index.RecordRow) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	want := fmt.Sprintf("- Length: %d chars", rec.Length)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == strings.TrimSpace(report.TranscriptSeparator) {
			break
		}
		if strings.HasPrefix(line, "- Length: ") {
			return line == want
		}
	}
	return false
}

// dumpLine finds the line of `"index": idx` in the indented dump.
func dumpLine(path string, idx int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	needle := `"index": ` + strconv.Itoa(idx) + ","
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if strings.TrimSpace(scanner.Text()) == needle {
			return n, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 1, nil
}

func OpenRecord(db *index.DB, outputDir, exportKey string, idx int) error {
	rec, err := db.GetRecord(exportKey, idx)
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("record not found: %s #%d", exportKey, idx)
	}

	path, line, err := Target(outputDir, *rec)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return openInEditor(editor, path, line)
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
