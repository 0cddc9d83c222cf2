package vocab

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// WordInfoWriter is the store surface a word-list import writes through.
type WordInfoWriter interface {
	SetWordInfo(ctx context.Context, lang language.Tag, lemma string, difficulty Level, frequencyRank int) error
}

// LoadWordList imports difficulty bands from a CSV word list. Each
// record is "lemma,level" with an optional third frequency-rank column
// (e.g. "verstehen,B1,412"). Blank lines and lines starting with '#'
// are skipped. Returns the number of imported records.
func LoadWordList(ctx context.Context, r io.Reader, lang language.Tag, w WordInfoWriter) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	imported := 0
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return imported, nil
		}
		if err != nil {
			return imported, fmt.Errorf("word list line %d: %w", line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return imported, fmt.Errorf("word list line %d: expected lemma,level", line)
		}

		lemma := strings.TrimSpace(record[0])
		if lemma == "" {
			return imported, fmt.Errorf("word list line %d: empty lemma", line)
		}
		level, err := ParseCEFRLevel(record[1])
		if err != nil {
			return imported, fmt.Errorf("word list line %d: %w", line, err)
		}
		rank := 0
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			rank, err = strconv.Atoi(strings.TrimSpace(record[2]))
			if err != nil {
				return imported, fmt.Errorf("word list line %d: invalid frequency rank: %w", line, err)
			}
		}

		if err := w.SetWordInfo(ctx, lang, lemma, level, rank); err != nil {
			return imported, fmt.Errorf("word list line %d: %w", line, err)
		}
		imported++
	}
}
