package polybar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	countdown "github.com/d093w1z/countdown/api"
	"github.com/d093w1z/countdown/api/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Test helpers
func newManager(t *testing.T, seconds int) (*countdown.TimerManager, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(epoch)
	tm, err := countdown.NewTimerManager(seconds, countdown.FormatMMSS, clk)
	if err != nil {
		t.Fatalf("NewTimerManager: %v", err)
	}
	t.Cleanup(tm.Close)
	return tm, clk
}

func waitFor(cond func() bool, timeout time.Duration) bool {
	start := time.Now()
	for time.Since(start) < timeout {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func writeToFifo(t *testing.T, path, data string) {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Errorf("Failed to open FIFO for writing: %v", err)
		return
	}
	defer file.Close()

	if _, err := io.WriteString(file, data); err != nil {
		t.Errorf("Failed to write to FIFO: %v", err)
	}
}

// resetGlobals gives each test a fresh command loop lifecycle.
func resetGlobals() {
	fifoPipePath = ""
	startOnce = sync.Once{}
	stopOnce = sync.Once{}
	stopping = make(chan struct{})
	wg = sync.WaitGroup{}
}

// ================= Setup/Teardown Tests =================

func TestInit(t *testing.T) {
	resetGlobals()
	basePipe := filepath.Join(t.TempDir(), "test.pipe")

	path, err := Init(basePipe)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer os.Remove(path)

	expectedPattern := fmt.Sprintf("%s.%d", basePipe, os.Getpid())
	if !strings.HasPrefix(FifoPath(), expectedPattern) {
		t.Errorf("Expected FIFO path to start with %s, got %s", expectedPattern, FifoPath())
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat FIFO: %v", err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		t.Error("Created file is not a named pipe")
	}
}

func TestInitWithBase_Relative(t *testing.T) {
	resetGlobals()
	base := fmt.Sprintf("countdown-test-%d.pipe", time.Now().UnixNano())

	path, err := InitWithBase(base)
	if err != nil {
		t.Fatalf("InitWithBase failed: %v", err)
	}
	defer os.Remove(path)

	if !strings.HasPrefix(path, filepath.Join(os.TempDir(), base)) {
		t.Errorf("Expected relative base to live under %s, got %s", os.TempDir(), path)
	}
}

func TestMkfifoUnique(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "unique.pipe")

	path1, err := mkfifoUnique(basePath, 0666)
	if err != nil {
		t.Fatalf("First mkfifoUnique call failed: %v", err)
	}
	path2, err := mkfifoUnique(basePath, 0666)
	if err != nil {
		t.Fatalf("Second mkfifoUnique call failed: %v", err)
	}

	for i, path := range []string{path1, path2} {
		fi, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Failed to stat path %d (%s): %v", i, path, err)
		}
		if fi.Mode()&os.ModeNamedPipe == 0 {
			t.Errorf("Path %d (%s) is not a named pipe", i, path)
		}
	}
}

func TestMkfifoUnique_MissingDirectory(t *testing.T) {
	_, err := mkfifoUnique(filepath.Join(t.TempDir(), "missing", "test.pipe"), 0666)
	if err == nil {
		t.Error("Expected error when creating FIFO in a missing directory")
	}
}

// ================= Output Tests =================

func TestPolybarActionButton(t *testing.T) {
	result := polybarActionButton("Test Button\n", "test_action")
	expected := "%{A:test_action:} Test Button %{A}"

	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestPipeCommand(t *testing.T) {
	fifoPipePath = "/tmp/test.pipe"

	result := pipeCommand("toggle")
	expected := "echo 'toggle' > /tmp/test.pipe"

	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestOutput(t *testing.T) {
	tm, clk := newManager(t, 300)
	SetTimerManager(tm)
	fifoPipePath = "/tmp/test.pipe"

	result := output()
	for _, want := range []string{
		"%{A:echo 'dec' > /tmp/test.pipe:} [-] %{A}",
		"%{A2:echo 'gui' > /tmp/test.pipe:}",
		"%{A:echo 'toggle' > /tmp/test.pipe:} 05:00 %{A}",
		"%{A:echo 'inc' > /tmp/test.pipe:} [+] %{A}",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected output to contain %q, got %q", want, result)
		}
	}

	tm.Start()
	clk.Advance(5 * countdown.TickInterval)
	tm.Pause()
	if result := output(); !strings.Contains(result, " 04:55 || ") {
		t.Errorf("Expected paused marker in %q", result)
	}
}

func TestOutput_WithoutManager(t *testing.T) {
	SetTimerManager(nil)
	if result := output(); !strings.Contains(result, " --:-- ") {
		t.Errorf("Expected placeholder without a manager, got %q", result)
	}
}

// ================= Wrapper Tests =================

func TestTimerWrappers_WithManager(t *testing.T) {
	tm, clk := newManager(t, 100)
	SetTimerManager(tm)

	TimerInc()
	if s := tm.Current(); s.Total != 105 {
		t.Errorf("Expected duration 105 after TimerInc, got %d", s.Total)
	}
	TimerDec()
	if s := tm.Current(); s.Total != 100 {
		t.Errorf("Expected duration 100 after TimerDec, got %d", s.Total)
	}

	TimerStart()
	clk.Advance(countdown.TickInterval)
	if s := tm.Current(); !s.Running || s.Remaining != 99 {
		t.Errorf("Expected running at 99, got %+v", s)
	}

	TimerInc()
	if s := tm.Current(); s.Total != 100 {
		t.Errorf("Expected TimerInc ignored mid-run, got %d", s.Total)
	}

	TimerPause()
	TimerResume()
	TimerToggle()
	if s := tm.Current(); s.Running {
		t.Error("Expected toggle to pause the resumed timer")
	}

	if ch := Subscribe(); ch == nil {
		t.Error("Expected Subscribe to return a channel")
	}

	TimerStop()
	if s := Snapshot(); s.Remaining != 100 || s.Running {
		t.Errorf("Expected stopped snapshot, got %+v", s)
	}
}

func TestTimerWrappers_WithoutManager(t *testing.T) {
	SetTimerManager(nil)

	TimerStart()
	TimerPause()
	TimerResume()
	TimerToggle()
	TimerStop()
	TimerInc()
	TimerDec()

	if s := Snapshot(); s != (countdown.Snapshot{}) {
		t.Errorf("Expected zero Snapshot with nil manager, got %+v", s)
	}
	if ch := Subscribe(); ch != nil {
		t.Error("Expected Subscribe to return nil with nil manager")
	}
}

// ================= Command Handling Tests =================

func TestDispatch(t *testing.T) {
	tm, _ := newManager(t, 60)
	SetTimerManager(tm)

	var guiCalls int
	AddHandler(func() { guiCalls++ })

	dispatch("start")
	if !tm.Current().Running {
		t.Error("start: expected timer running")
	}
	dispatch("pause")
	if tm.Current().Running {
		t.Error("pause: expected timer paused")
	}
	dispatch("resume")
	if !tm.Current().Running {
		t.Error("resume: expected timer running")
	}
	dispatch("toggle")
	if tm.Current().Running {
		t.Error("toggle: expected timer paused")
	}
	dispatch("stop")
	dispatch("inc")
	if s := tm.Current(); s.Total != 65 {
		t.Errorf("inc: expected 65, got %d", s.Total)
	}
	dispatch("dec")
	dispatch("gui")
	if guiCalls != 1 {
		t.Errorf("gui: expected handler once, got %d", guiCalls)
	}
	dispatch("unknown_command")
}

func TestHandleCmds_OverFifo(t *testing.T) {
	resetGlobals()
	path, err := InitWithBase(filepath.Join(t.TempDir(), "cmds.pipe"))
	if err != nil {
		t.Fatalf("Failed to initialize FIFO: %v", err)
	}
	defer os.Remove(path)

	tm, _ := newManager(t, 60)
	SetTimerManager(tm)

	wg.Add(1)
	go func() {
		defer wg.Done()
		handleCmds()
	}()

	writeToFifo(t, path, "start\n")
	if !waitFor(func() bool { return tm.Current().Running }, 2*time.Second) {
		t.Error("Expected 'start' over the FIFO to start the timer")
	}

	writeToFifo(t, path, "pause\n")
	if !waitFor(func() bool { return !tm.Current().Running }, 2*time.Second) {
		t.Error("Expected 'pause' over the FIFO to pause the timer")
	}

	done := make(chan struct{})
	go func() {
		Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Shutdown did not stop the command loop")
	}
}

func TestHandleCmds_FifoError(t *testing.T) {
	resetGlobals()
	fifoPipePath = "/nonexistent/directory/pipe"

	done := make(chan struct{})
	go func() {
		handleCmds()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	close(stopping)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("handleCmds should exit when stopping channel is closed")
	}
}

// ================= Shutdown Tests =================

func TestShutdown(t *testing.T) {
	resetGlobals()
	path, err := InitWithBase(filepath.Join(t.TempDir(), "shutdown_test.pipe"))
	if err != nil {
		t.Fatalf("Failed to initialize FIFO: %v", err)
	}

	Shutdown()
	Shutdown()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("FIFO file should be removed after shutdown")
	}
}

func TestShutdown_UnblocksIdleReader(t *testing.T) {
	resetGlobals()
	path, err := InitWithBase(filepath.Join(t.TempDir(), "idle.pipe"))
	if err != nil {
		t.Fatalf("Failed to initialize FIFO: %v", err)
	}

	startOnce.Do(func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleCmds()
		}()
	})
	// Give the loop time to block in open with no writer attached.
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Expected Shutdown to return while the command loop waits for a writer")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("FIFO file should be removed after shutdown")
	}
}

func TestMain_ShutdownReturns(t *testing.T) {
	resetGlobals()
	if _, err := InitWithBase(filepath.Join(t.TempDir(), "main.pipe")); err != nil {
		t.Fatalf("Failed to initialize FIFO: %v", err)
	}
	SetTimerManager(nil)

	done := make(chan struct{})
	go func() {
		Main()
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		Shutdown()
		close(stopped)
	}()
	for _, ch := range []chan struct{}{stopped, done} {
		select {
		case <-ch:
		case <-time.After(3 * time.Second):
			t.Fatal("Expected Main and Shutdown to return")
		}
	}
}

func TestMain_WithoutInit(t *testing.T) {
	resetGlobals()

	done := make(chan struct{})
	go func() {
		Main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Main should return immediately without Init")
	}
}

// ================= Benchmark Tests =================

func BenchmarkOutput(b *testing.B) {
	tm, err := countdown.NewTimerManager(300, countdown.FormatMMSS, clock.Fake(epoch))
	if err != nil {
		b.Fatal(err)
	}
	defer tm.Close()
	SetTimerManager(tm)
	fifoPipePath = "/tmp/bench.pipe"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		output()
	}
}
