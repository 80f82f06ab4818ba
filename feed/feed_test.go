package feed

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/dashboard"
	"github.com/joshyorko/swarmdash/dashcore"
)

func TestQueueDrainInBatches(t *testing.T) {
	queue := NewQueue()
	for i := 0; i < 5; i++ {
		queue.Push(dashboard.Event{Message: string(rune('a' + i))})
	}
	queue.Close()
	queue.Push(dashboard.Event{Message: "late"})

	batch, ended := queue.Drain(3)
	if len(batch) != 3 || ended {
		t.Fatalf("expected 3 events and no end yet, got %d ended=%v", len(batch), ended)
	}
	if batch[0].Message != "a" || batch[2].Message != "c" {
		t.Errorf("events out of order: %v", batch)
	}

	batch, ended = queue.Drain(3)
	if len(batch) != 2 || !ended {
		t.Errorf("expected last 2 events with end of stream, got %d ended=%v", len(batch), ended)
	}
	if queue.Pushed() != 5 {
		t.Errorf("pushes after Close must be dropped, accepted %d", queue.Pushed())
	}

	batch, ended = queue.Drain(3)
	if len(batch) != 0 || !ended {
		t.Error("closed empty queue should keep reporting the end")
	}
}

func TestQueueOpenAndEmpty(t *testing.T) {
	queue := NewQueue()
	batch, ended := queue.Drain(10)
	if batch != nil || ended {
		t.Error("open empty queue should yield nothing and not end")
	}
	queue.Push(dashboard.Event{})
	if queue.Len() != 1 {
		t.Errorf("expected 1 queued, got %d", queue.Len())
	}
	if batch, _ := queue.Drain(0); batch != nil {
		t.Error("zero limit should take nothing")
	}
}

func TestReadStreamDropsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"message":"Task created","data":{"taskId":"t1"}}`,
		``,
		`not json at all`,
		`   {"message":"Merge result","data":{"status":"merged"}}   `,
		`[1,2,3]`,
		`{"message":"Task status"`,
	}, "\n")

	queue := NewQueue()
	ReadStream(strings.NewReader(input), queue)

	batch, ended := queue.Drain(100)
	if !ended {
		t.Error("stream end should close the queue")
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 valid events, got %d", len(batch))
	}
	if batch[0].Message != "Task created" || batch[1].Message != "Merge result" {
		t.Errorf("unexpected events %v", batch)
	}
}

func TestReadStreamSkipsOversizedLines(t *testing.T) {
	huge := strings.Repeat("x", MaxLineSize+10)
	input := strings.Join([]string{
		huge,
		`{"message":"Task created","data":{"taskId":"t1"}}`,
		`{"message":"Task created","data":{"taskId":"` + huge + `"}}`,
		`{"message":"Task created","data":{"taskId":"t2"}}`,
		huge,
	}, "\n")

	queue := NewQueue()
	ReadStream(strings.NewReader(input), queue)

	batch, ended := queue.Drain(10)
	if !ended {
		t.Error("stream end should close the queue")
	}
	if len(batch) != 2 {
		t.Fatalf("expected the 2 normal events, got %d", len(batch))
	}
	for at, id := range []string{"t1", "t2"} {
		if batch[at].Level == "error" || batch[at].Data.Text("taskId") != id {
			t.Errorf("event %d: expected task %s, got %+v", at, id, batch[at])
		}
	}
}

func TestEachLineReportsOversized(t *testing.T) {
	input := "a\r\n" + strings.Repeat("y", MaxLineSize+1) + "\nb"
	var seen []string
	oversized, err := EachLine(strings.NewReader(input), func(line []byte) {
		seen = append(seen, string(line))
	})
	if err != nil {
		t.Fatal(err)
	}
	if oversized != 1 || strings.Join(seen, ",") != "a,b" {
		t.Errorf("expected lines a,b and 1 oversized, got %q and %d", seen, oversized)
	}
}

type failingReader struct {
	data io.Reader
	err  error
}

func (it *failingReader) Read(p []byte) (int, error) {
	n, err := it.data.Read(p)
	if err == io.EOF {
		return n, it.err
	}
	return n, err
}

func TestReadStreamErrorBecomesEvent(t *testing.T) {
	queue := NewQueue()
	ReadStream(&failingReader{
		data: strings.NewReader("{\"message\":\"Metrics\"}\n"),
		err:  errors.New("pipe burst"),
	}, queue)

	batch, ended := queue.Drain(10)
	if !ended || len(batch) != 2 {
		t.Fatalf("expected event, synthetic error and end, got %d ended=%v", len(batch), ended)
	}
	synthetic := batch[1]
	if synthetic.Level != "error" || !strings.HasPrefix(synthetic.Message, "Process error: ") || !strings.Contains(synthetic.Message, "pipe burst") {
		t.Errorf("unexpected synthetic event %+v", synthetic)
	}
	if synthetic.Timestamp == 0 {
		t.Error("synthetic event should be timestamped")
	}
}

func TestSyntheticErrorReachesActivity(t *testing.T) {
	state := dashboard.New(dashboard.DefaultConfig())
	state.Ingest(ErrorEvent(errors.New("exec: \"node\": not found"), time.Now()))
	activity := state.Snapshot().Activity
	if len(activity) != 1 || !strings.HasPrefix(activity[0].Message, "ERR  Process error:") {
		t.Errorf("unexpected activity %v", activity)
	}
}

func TestNewSubprocessSplitsCommand(t *testing.T) {
	process, err := NewSubprocess(`node "packages/orchestrator/dist/main.js" --name 'swarm one'`, "")
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"node", "packages/orchestrator/dist/main.js", "--name", "swarm one"}
	argv := process.Argv()
	if strings.Join(argv, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %v, got %v", expected, argv)
	}

	if _, err := NewSubprocess("   ", ""); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("expected ErrEmptyCommand, got %v", err)
	}
}

func TestSubprocessStartFailure(t *testing.T) {
	process, err := NewSubprocess("definitely-not-a-real-binary-swarmdash --demo", "")
	if err != nil {
		t.Fatal(err)
	}
	queue := NewQueue()
	if err := process.Run(context.Background(), queue); err == nil {
		t.Error("expected start error")
	}
	batch, ended := queue.Drain(10)
	if !ended || len(batch) != 1 || batch[0].Level != "error" {
		t.Errorf("expected a single synthetic error then end, got %v ended=%v", batch, ended)
	}
	if err := process.Stop(); err != nil {
		t.Errorf("stopping a process that never started should be a no-op, got %v", err)
	}
}

func TestSubprocessStreamsStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := `printf '{"message":"Task created","data":{"taskId":"t1"}}\nnoise\n'; echo oops >&2; exit 3`
	process := &Subprocess{argv: []string{"sh", "-c", script}, workdir: os.TempDir()}
	queue := NewQueue()
	if err := process.Run(context.Background(), queue); err != nil {
		t.Fatalf("non-zero exit is not a producer failure, got %v", err)
	}
	batch, ended := queue.Drain(10)
	if !ended || len(batch) != 1 || batch[0].Data.Text("taskId") != "t1" {
		t.Errorf("unexpected output %v ended=%v", batch, ended)
	}
}

func TestSubprocessSurvivesOversizedLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := `head -c 4194400 /dev/zero | tr '\000' x; echo
i=0
while [ $i -lt 2000 ]; do echo '{"message":"Metrics"}'; i=$((i+1)); done`
	process := &Subprocess{argv: []string{"sh", "-c", script}}
	queue := NewQueue()
	finished := make(chan error, 1)
	go func() {
		finished <- process.Run(context.Background(), queue)
	}()

	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("oversized line is not a producer failure, got %v", err)
		}
	case <-time.After(30 * time.Second):
		process.Stop()
		t.Fatal("producer blocked after an oversized line")
	}
	batch, ended := queue.Drain(5000)
	if !ended || len(batch) != 2000 {
		t.Errorf("expected 2000 events and end, got %d ended=%v", len(batch), ended)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (it *lockedBuffer) Write(p []byte) (int, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.buf.Write(p)
}

func (it *lockedBuffer) String() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.buf.String()
}

func TestStderrKeepsLinesWhole(t *testing.T) {
	sink := &lockedBuffer{}
	common.DefineVerbosity(false, true, false)
	common.RedirectLogs(sink)
	defer common.DefineVerbosity(false, false, false)
	defer common.ClearLogInterceptor()

	stderr := &stderrLog{}
	for _, chunk := range []string{"warming ", "up\nsecond", " line\n", "tail"} {
		if n, err := stderr.Write([]byte(chunk)); err != nil || n != len(chunk) {
			t.Fatalf("write %q: %d, %v", chunk, n, err)
		}
	}
	if strings.Contains(sink.String(), "tail") {
		t.Error("an unfinished line should be held back")
	}
	stderr.Flush()

	logged := sink.String()
	for _, line := range []string{"orchestrator: warming up\n", "orchestrator: second line\n", "orchestrator: tail\n"} {
		if !strings.Contains(logged, line) {
			t.Errorf("expected %q in log:\n%s", line, logged)
		}
	}
	if strings.Count(logged, "orchestrator:") != 3 {
		t.Errorf("expected exactly 3 lines, got:\n%s", logged)
	}
}

func TestSubprocessStop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	process := &Subprocess{argv: []string{"sh", "-c", "echo '{\"message\":\"Metrics\"}'; exec sleep 30"}}
	queue := NewQueue()
	finished := make(chan error, 1)
	go func() {
		finished <- process.Run(context.Background(), queue)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for queue.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := process.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-finished:
		if err != nil {
			t.Errorf("stopped process should not report an error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after Stop")
	}
	batch, ended := queue.Drain(10)
	if !ended || len(batch) != 1 {
		t.Errorf("expected the one event before stop, got %v ended=%v", batch, ended)
	}
}

func fakeClockDemo(agents, features int) (*Demo, *time.Time) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	demo := NewDemo(agents, features)
	demo.Random = rand.New(rand.NewPCG(7, 11))
	demo.Now = func() time.Time { return clock }
	demo.Sleep = func(ctx context.Context, d time.Duration) bool {
		clock = clock.Add(d)
		return ctx.Err() == nil
	}
	return demo, &clock
}

func TestDemoFinishesAllFeatures(t *testing.T) {
	demo, _ := fakeClockDemo(4, 12)
	queue := NewQueue()
	demo.Run(context.Background(), queue)

	events, ended := queue.Drain(queue.Len())
	if !ended {
		t.Fatal("demo should close the queue when finished")
	}

	state := dashboard.New(dashboard.DefaultConfig())
	state.IngestAll(events)
	snapshot := state.Snapshot()

	created := 0
	for _, event := range events {
		if event.Message == dashboard.MsgTaskCreated {
			created++
		}
	}
	if created != 12 {
		t.Errorf("expected 12 created tasks, got %d", created)
	}
	finished := snapshot.Stats.Complete + snapshot.Stats.Failed
	if finished != 12 {
		t.Errorf("expected all 12 tasks finished, got %d (%+v)", finished, snapshot.Stats)
	}
	if snapshot.Merges.Total() != snapshot.Stats.Complete {
		t.Errorf("every completed task should merge or conflict: %d vs %d", snapshot.Merges.Total(), snapshot.Stats.Complete)
	}
	for _, id := range snapshot.Tree.Order {
		if strings.Count(id, "-sub-") > 2 {
			t.Errorf("demo nests at most two levels, got %s", id)
		}
		if node := snapshot.Tree.Nodes[id]; id != snapshot.Tree.Root && node.Status.IsActive() {
			t.Errorf("%s still active after the demo ended", id)
		}
	}
	if root := snapshot.Tree.Nodes[snapshot.Tree.Root]; root.Status != dashcore.StatusRunning {
		t.Errorf("root should stay running, got %s", root.Status)
	}
}

func TestDemoStopsOnCancel(t *testing.T) {
	demo, _ := fakeClockDemo(10, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0
	sleep := demo.Sleep
	demo.Sleep = func(ctx context.Context, d time.Duration) bool {
		ticks++
		if ticks == 20 {
			cancel()
		}
		return sleep(ctx, d)
	}

	queue := NewQueue()
	demo.Run(ctx, queue)
	if _, ended := queue.Drain(queue.Len()); !ended {
		t.Error("cancelled demo should still close the queue")
	}
	if ticks != 20 {
		t.Errorf("expected demo to stop at tick 20, ran %d", ticks)
	}
}
