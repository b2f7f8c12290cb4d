// Package locfile reads and rewrites Paradox localisation files: a language
// header such as l_english: followed by lines of the form key:0 "value".
package locfile

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	DirName      = "localization"
	SourceSuffix = "english.yml"
	TargetSuffix = "spanish.yml"
)

const bom = "\ufeff"

var ErrMalformedLine = errors.New("malformed localisation line")

var (
	headerRe = regexp.MustCompile(`^\s*l_[A-Za-z_]+:\s*$`)

	// key, optional version, quoted value, optional comment. The value ends
	// at the first unescaped quote that is followed by the end of the line
	// or by whitespace and a comment.
	recordRe = regexp.MustCompile(`^\s*([^\s:"#]+):(\d*)\s*"((?:\\.|[^\\])*?)"(?:\s+#.*)?\s*$`)
)

// Record is one key:version "value" line.
type Record struct {
	Key     string
	Version string
	Value   string
	Line    int
}

// LineError describes a line ReadFile had to skip.
type LineError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.Path, e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ParseLine parses one line. Blank lines, comments and language headers
// yield nil without error.
func ParseLine(line string) (*Record, error) {
	line = strings.TrimPrefix(line, bom)
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || headerRe.MatchString(line) {
		return nil, nil
	}

	m := recordRe.FindStringSubmatch(line)
	if m == nil {
		return nil, ErrMalformedLine
	}
	return &Record{Key: m[1], Version: m[2], Value: m[3]}, nil
}

// ReadFile returns the records of a localisation file. Malformed lines are
// skipped and reported in the second return value.
func ReadFile(path string) ([]Record, []*LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var (
		records []Record
		skipped []*LineError
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		rec, err := ParseLine(text)
		if err != nil {
			skipped = append(skipped, &LineError{Path: path, Line: n, Text: text, Err: err})
			continue
		}
		if rec != nil {
			rec.Line = n
			records = append(records, *rec)
		}
	}
	if err := sc.Err(); err != nil {
		return records, skipped, fmt.Errorf("read %s: %w", path, err)
	}
	return records, skipped, nil
}

// Rewrite replaces the value of every record whose key lookup knows. All
// other bytes of the file are kept as they are. It returns the number of
// values replaced; the file is not touched when that number is zero.
func Rewrite(path string, lookup func(key string) (string, bool)) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	lines := strings.SplitAfter(string(data), "\n")
	replaced := 0
	for i, line := range lines {
		prefix := ""
		if i == 0 && strings.HasPrefix(line, bom) {
			prefix, line = bom, strings.TrimPrefix(line, bom)
		}
		body := strings.TrimRight(line, "\r\n")
		ending := line[len(body):]

		loc := recordRe.FindStringSubmatchIndex(body)
		if loc == nil {
			continue
		}
		key := body[loc[2]:loc[3]]
		value, ok := lookup(key)
		if !ok {
			continue
		}
		lines[i] = prefix + body[:loc[6]] + value + body[loc[7]:] + ending
		replaced++
	}

	if replaced == 0 {
		return 0, nil
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "")), info.Mode().Perm()); err != nil {
		return 0, err
	}
	return replaced, nil
}

// FindLocalizationDirs returns every directory named localization below
// root, sorted.
func FindLocalizationDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == DirName {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	return dirs, nil
}

// FindFiles returns the regular files below root whose name ends with
// suffix, sorted.
func FindFiles(root, suffix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
