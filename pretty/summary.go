package pretty

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joshyorko/swarmdash/dashboard"
)

// Summary is the report printed after the dashboard leaves the screen.
func Summary(snapshot dashboard.Snapshot) string {
	metrics := snapshot.Metrics
	var out strings.Builder
	fmt.Fprintf(&out, "\n%s%sAgentSwarm Session Complete%s\n", Bold, Cyan, Reset)
	fmt.Fprintf(&out, "  Duration    %s\n", summaryDuration(snapshot.Elapsed))
	fmt.Fprintf(&out, "  Completed   %d / %d\n", metrics.CompletedTasks, snapshot.TotalFeatures)
	fmt.Fprintf(&out, "  Failed      %d\n", metrics.FailedTasks)
	fmt.Fprintf(&out, "  Merged      %d  conflicts %d  failed %d\n", snapshot.Merges.Merged, snapshot.Merges.Conflicts, snapshot.Merges.Failed)
	fmt.Fprintf(&out, "  Tokens      %s\n", GroupThousands(metrics.TotalTokens))
	fmt.Fprintf(&out, "  Est. cost   $%.2f\n\n", snapshot.Cost)
	return out.String()
}

// PrintSummary writes the session report to sink.
func PrintSummary(sink io.Writer, snapshot dashboard.Snapshot) error {
	_, err := io.WriteString(sink, Summary(snapshot))
	return err
}

func summaryDuration(elapsed time.Duration) string {
	total := int64(max(0, elapsed/time.Second))
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total%3600/60, total%60)
}
