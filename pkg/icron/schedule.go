// Package icron derives the previous fire time of a cron expression,
// which robfig/cron's Schedule interface does not expose.
package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// maxLookback bounds the search for the previous trigger.
const maxLookback = 366 * 24 * time.Hour

type TriggerInfo struct {
	Expression string
	Last       time.Time
	Next       time.Time
}

// GetTriggerInfo parses expr with the same field set cron.New accepts
// (standard five fields or a descriptor like "@every 5m") and reports
// the triggers before and after ref. Last is zero when no trigger
// falls within the lookback window.
func GetTriggerInfo(expr string, ref time.Time) (*TriggerInfo, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	info := &TriggerInfo{Expression: expr, Next: schedule.Next(ref)}

	// Step back in doubling windows until one contains a trigger, then
	// advance to the last trigger not after ref.
	for back := time.Minute; back <= maxLookback; back *= 2 {
		candidate := schedule.Next(ref.Add(-back))
		if candidate.IsZero() || candidate.After(ref) {
			continue
		}
		for {
			next := schedule.Next(candidate)
			if next.IsZero() || next.After(ref) {
				break
			}
			candidate = next
		}
		info.Last = candidate
		break
	}

	return info, nil
}
