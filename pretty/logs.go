package pretty

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dchest/siphash"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/dashboard"
	"github.com/joshyorko/swarmdash/feed"
)

const (
	paletteKey0 = 0x73776172_6d646173
	paletteKey1 = 0x68626f61_72640a00
)

var agentPalette = []int{39, 45, 51, 75, 81, 114, 120, 141, 147, 171, 177, 207, 213, 215, 221, 229}

// AgentColor picks a palette entry for an agent. The same id always gets
// the same color, across runs and machines.
func AgentColor(agentID string) int {
	sum := siphash.Hash(paletteKey0, paletteKey1, []byte(agentID))
	return agentPalette[sum%uint64(len(agentPalette))]
}

// LogFilter narrows what PrintLogs shows. Empty fields match everything.
type LogFilter struct {
	Agent string
	Level string
	Raw   bool
}

func (it LogFilter) accepts(event dashboard.Event) bool {
	if it.Agent != "" && event.AgentID != it.Agent {
		return false
	}
	if it.Level != "" && !strings.EqualFold(event.LevelOrDefault(), it.Level) {
		return false
	}
	return true
}

// FormatEvent renders one event as a single human readable line.
func FormatEvent(event dashboard.Event) string {
	var line strings.Builder
	stamp := "--:--:--"
	if when := event.Time(); !when.IsZero() {
		stamp = when.Format("15:04:05")
	}
	level := event.LevelOrDefault()
	fmt.Fprintf(&line, "%s%s%s %s%-5s%s", Faint, stamp, Reset, SeverityColor(level), strings.ToUpper(level), Reset)
	if event.AgentID != "" {
		fmt.Fprintf(&line, " %s%s%s", Color256(AgentColor(event.AgentID)), event.AgentID, Reset)
		if event.AgentRole != "" {
			fmt.Fprintf(&line, "%s(%s)%s", Grey, event.AgentRole, Reset)
		}
	}
	fmt.Fprintf(&line, " %s%s%s", Bold, event.Message, Reset)
	if event.TaskID != "" {
		fmt.Fprintf(&line, " task=%s", event.TaskID)
	}
	keys := make([]string, 0, len(event.Data))
	for key := range event.Data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		value := event.Data[key]
		if key == "status" {
			text := fmt.Sprint(value)
			fmt.Fprintf(&line, " %s=%s%s%s", key, StatusColor(text), text, Reset)
			continue
		}
		fmt.Fprintf(&line, " %s%s=%s%v", Grey, key, Reset, value)
	}
	return line.String()
}

// PrintLogs copies an NDJSON event stream to sink in human form. Lines
// that are not events are passed through untouched unless filtering is on.
// It returns the number of events printed.
func PrintLogs(source io.Reader, sink io.Writer, filter LogFilter) (int, error) {
	writer := bufio.NewWriter(sink)
	defer writer.Flush()

	filtering := filter.Agent != "" || filter.Level != ""
	printed := 0
	oversized, err := feed.EachLine(source, func(line []byte) {
		raw := strings.TrimSpace(string(line))
		if raw == "" {
			return
		}
		event, err := dashboard.ParseEvent([]byte(raw))
		if err != nil {
			if !filtering {
				fmt.Fprintf(writer, "%s%s%s\n", Grey, raw, Reset)
			}
			return
		}
		if !filter.accepts(event) {
			return
		}
		if filter.Raw {
			fmt.Fprintln(writer, raw)
		} else {
			fmt.Fprintln(writer, FormatEvent(event))
		}
		printed++
	})
	if oversized > 0 {
		common.Debug("skipped %d lines over %d bytes", oversized, feed.MaxLineSize)
	}
	if err != nil {
		return printed, fmt.Errorf("read event log: %w", err)
	}
	return printed, writer.Flush()
}
