package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DefaultReader is the default subtitle file reader
type DefaultReader struct {
	path   string
	strict bool
}

// NewReader creates a tolerant subtitle file reader. Malformed entries
// surrounded by valid ones are skipped with a recorded warning.
func NewReader(path string) *DefaultReader {
	return &DefaultReader{path: path}
}

// NewStrictReader creates a reader that fails on the first malformed entry.
func NewStrictReader(path string) *DefaultReader {
	return &DefaultReader{path: path, strict: true}
}

// Read reads and parses the subtitle file
func (r *DefaultReader) Read() (*File, error) {
	if !strings.HasSuffix(strings.ToLower(r.path), ".srt") {
		return nil, fmt.Errorf("only SRT format subtitle files are supported: %s", r.path)
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer f.Close()

	file, err := Parse(f, r.strict)
	if err != nil {
		return nil, err
	}
	file.Path = r.path
	return file, nil
}

var timeLineRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})[,.](\d{1,3}) --> (\d{2}):(\d{2}):(\d{2})[,.](\d{1,3})`)

// Parse parses SRT text into an ordered sequence of segments.
// In strict mode the first malformed entry aborts the parse; otherwise
// malformed entries are skipped and recorded in File.Warnings.
func Parse(r io.Reader, strict bool) (*File, error) {
	var segments []Segment
	var warnings []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	current := Segment{}
	state := "index" // "index", "time", "text"
	var textLines []string
	lineNo := 0

	fail := func(reason string) *MalformedSubtitleError {
		return &MalformedSubtitleError{Line: lineNo, Reason: reason}
	}
	skip := func(reason string) {
		warnings = append(warnings, fail(reason).Error())
		current = Segment{}
		textLines = nil
		state = "skip"
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "skip":
			// Discard until the blank line that terminates the bad entry.
			if line == "" {
				state = "index"
			}

		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				if strict {
					return nil, fail(fmt.Sprintf("expected entry index, got %q", line))
				}
				skip(fmt.Sprintf("expected entry index, got %q", line))
				continue
			}
			current.Index = index
			state = "time"

		case "time":
			if line == "" {
				if strict {
					return nil, fail("entry has index but no timestamp")
				}
				skip("entry has index but no timestamp")
				state = "index"
				continue
			}
			start, end, err := parseSRTTime(line)
			if err != nil {
				if strict {
					return nil, fail(err.Error())
				}
				skip(err.Error())
				continue
			}
			if end <= start {
				if strict {
					return nil, fail(fmt.Sprintf("end time %v precedes start time %v", end, start))
				}
				skip(fmt.Sprintf("end time %v precedes start time %v", end, start))
				continue
			}
			current.StartTime = start
			current.EndTime = end
			state = "text"
			textLines = nil

		case "text":
			if line == "" {
				if len(textLines) == 0 {
					if strict {
						return nil, fail("entry has timestamp but no text")
					}
					skip("entry has timestamp but no text")
					state = "index"
					continue
				}
				current.Text = strings.Join(textLines, "\n")
				segments = append(segments, current)
				current = Segment{}
				textLines = nil
				state = "index"
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// handle last entry without trailing blank line
	if state == "text" && len(textLines) > 0 {
		current.Text = strings.Join(textLines, "\n")
		segments = append(segments, current)
	} else if state == "time" || (state == "text" && len(textLines) == 0) {
		if strict {
			return nil, fail("truncated entry at end of input")
		}
		warnings = append(warnings, fail("truncated entry at end of input").Error())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle input: %w", err)
	}

	return &File{
		Segments: segments,
		Language: detectLanguage(segments),
		Format:   "SRT",
		Warnings: warnings,
	}, nil
}

// ParseString parses SRT text from a string.
func ParseString(text string, strict bool) (*File, error) {
	return Parse(strings.NewReader(text), strict)
}

// parseSRTTime parses an SRT time line, e.g. "00:02:16,612 --> 00:02:19,376"
func parseSRTTime(timeString string) (time.Duration, time.Duration, error) {
	matches := timeLineRe.FindStringSubmatch(timeString)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", timeString)
	}

	parseTime := func(hours, minutes, seconds, milliseconds string) time.Duration {
		h, _ := strconv.Atoi(hours)
		m, _ := strconv.Atoi(minutes)
		s, _ := strconv.Atoi(seconds)
		ms, _ := strconv.Atoi(milliseconds)

		return time.Duration(h)*time.Hour +
			time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second +
			time.Duration(ms)*time.Millisecond
	}

	start := parseTime(matches[1], matches[2], matches[3], matches[4])
	end := parseTime(matches[5], matches[6], matches[7], matches[8])
	return start, end, nil
}

// detectLanguage picks the dominant language across segment texts
func detectLanguage(segments []Segment) language.Tag {
	if len(segments) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, seg := range segments {
		lang := whatlanggo.DetectLang(seg.Text).Iso6391()
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	return language.All.Make(topLang)
}
