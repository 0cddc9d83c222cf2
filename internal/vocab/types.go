package vocab

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Status is the learning state of a lemma for one user.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusKnown    Status = "known"
	StatusMastered Status = "mastered"
)

// IsKnown reports whether the learner no longer needs help with the word.
func (s Status) IsKnown() bool {
	return s == StatusKnown || s == StatusMastered
}

// Valid reports whether s is one of the defined states.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusKnown, StatusMastered:
		return true
	}
	return false
}

// Level is a CEFR proficiency band used as word difficulty.
type Level int

const (
	LevelUnknown Level = iota
	LevelA1
	LevelA2
	LevelB1
	LevelB2
	LevelC1
	LevelC2
)

var levelNames = [...]string{"", "A1", "A2", "B1", "B2", "C1", "C2"}

func (l Level) String() string {
	if l < LevelA1 || l > LevelC2 {
		return "unknown"
	}
	return levelNames[l]
}

// ParseCEFRLevel parses a CEFR band name such as "B1".
func ParseCEFRLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i := int(LevelA1); i <= int(LevelC2); i++ {
		if levelNames[i] == name {
			return Level(i), nil
		}
	}
	return LevelUnknown, fmt.Errorf("invalid CEFR level: %q", s)
}

// Entry is the durable knowledge unit: one lemma's learning state for
// one (user, language) pair.
type Entry struct {
	UserID        string       `json:"user_id"`
	Language      language.Tag `json:"language"`
	Lemma         string       `json:"lemma"`
	Status        Status       `json:"status"`
	Confidence    float64      `json:"confidence_level"`
	Difficulty    Level        `json:"difficulty_level"`
	FrequencyRank int          `json:"frequency_rank"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ErrStoreUnavailable marks knowledge store I/O failures. A chunk
// cannot be classified without ground truth, so callers fail the chunk.
var ErrStoreUnavailable = errors.New("knowledge store unavailable")
