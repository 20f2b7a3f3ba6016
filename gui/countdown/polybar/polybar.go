package polybar

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	countdown "github.com/d093w1z/countdown/api"
	"github.com/d093w1z/countdown/api/clock"
)

// DefaultPipe is used when Init is given an empty base path.
const DefaultPipe = "/tmp/countdown.pipe"

var (
	fifoPipePath string

	mu                sync.RWMutex
	guiToggleCallback func()

	timerMu   sync.Mutex
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	stopping  = make(chan struct{})

	timerManager *countdown.TimerManager

	logger = slog.Default()
	ticks  = clock.Real()
)

// SetLogger replaces the package logger.
func SetLogger(l *slog.Logger) {
	logger = l.With("component", "polybar")
}

// --- TimerManager injection ---

// SetTimerManager lets the application provide a shared TimerManager instance.
// Safe to call before or after Init().
func SetTimerManager(tm *countdown.TimerManager) {
	timerMu.Lock()
	defer timerMu.Unlock()
	timerManager = tm
}

// getTimerManager safely returns the current TimerManager or nil.
func getTimerManager() *countdown.TimerManager {
	timerMu.Lock()
	defer timerMu.Unlock()
	return timerManager
}

// --- Polybar setup ---

// Init creates the command FIFO under base, or DefaultPipe when base
// is empty.
func Init(base string) (string, error) {
	if base == "" {
		base = DefaultPipe
	}
	path, err := InitWithBase(base)
	if err != nil {
		return "", fmt.Errorf("polybar init: %w", err)
	}
	logger.Info("FIFO created", "path", path)
	return path, nil
}

func InitWithBase(base string) (string, error) {
	abs := base
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(os.TempDir(), base)
	}

	path, err := mkfifoUnique(abs, 0666)
	if err != nil {
		return "", err
	}
	fifoPipePath = path
	return path, nil
}

func mkfifoUnique(base string, mode os.FileMode) (string, error) {
	// Add PID to make it unique per process
	pid := os.Getpid()

	for i := 0; i < 1000; i++ {
		var path string
		if i == 0 {
			path = fmt.Sprintf("%s.%d", base, pid)
		} else {
			path = fmt.Sprintf("%s.%d.%d", base, pid, i)
		}

		err := syscall.Mkfifo(path, uint32(mode.Perm()))
		if err == nil {
			return path, nil
		}
		if errors.Is(err, os.ErrExist) || err == syscall.EEXIST {
			fi, statErr := os.Lstat(path)
			if statErr != nil {
				continue
			}
			if (fi.Mode()&os.ModeNamedPipe) != 0 && canUseFifo(path) {
				return path, nil
			}
			continue
		}
		return "", fmt.Errorf("mkfifo %q: %w", path, err)
	}
	return "", fmt.Errorf("unable to allocate unique FIFO for base %q after many attempts", base)
}

// canUseFifo reports whether a leftover FIFO has no other reader
// attached.
func canUseFifo(path string) bool {
	file, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// --- Handlers ---

func AddHandler(f func()) {
	mu.Lock()
	guiToggleCallback = f
	mu.Unlock()
}

// Main prints one status line per second until SIGINT, SIGTERM or
// Shutdown. Init must have succeeded first.
func Main() {
	if fifoPipePath == "" {
		logger.Error("Main called before Init")
		return
	}

	startOnce.Do(func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleCmds()
		}()
	})

	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	t := ticks.NewTicker(time.Second)
	defer t.Stop()

	if getTimerManager() == nil {
		logger.Warn("no TimerManager set, timer disabled")
	}

	logger.Info("starting main loop")
	fmt.Println(output())

	for {
		select {
		case <-t.C:
			fmt.Println(output())
		case sig := <-sigc:
			logger.Info("received signal, shutting down", "signal", sig)
			Shutdown()
			return
		case <-stopping:
			logger.Info("stopping channel triggered")
			return
		}
	}
}

func Shutdown() {
	logger.Info("initiating shutdown")
	stopOnce.Do(func() {
		close(stopping)
		wakeReader()
		if fifoPipePath != "" {
			logger.Info("removing FIFO", "path", fifoPipePath)
			if err := os.Remove(fifoPipePath); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("removing FIFO", "path", fifoPipePath, "error", err)
			}
		}
	})
	wg.Wait()
	logger.Info("shutdown complete")
}

// wakeReader unblocks a command loop parked in the FIFO open by
// connecting a writer until the loop has exited.
func wakeReader() {
	exited := make(chan struct{})
	go func() {
		wg.Wait()
		close(exited)
	}()

	for {
		if fifoPipePath != "" {
			if f, err := os.OpenFile(fifoPipePath, os.O_WRONLY|syscall.O_NONBLOCK, 0); err == nil {
				f.Close()
			}
		}
		select {
		case <-exited:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func FifoPath() string { return fifoPipePath }

// --- Internal command loop ---

func handleCmds() {
	logger.Debug("starting command handler")
	defer logger.Debug("command handler stopped")

	for {
		select {
		case <-stopping:
			return
		default:
		}

		file, err := os.OpenFile(fifoPipePath, os.O_RDONLY, os.ModeNamedPipe)
		if err != nil {
			logger.Warn("open FIFO", "path", fifoPipePath, "error", err)
			select {
			case <-stopping:
				return
			case <-time.After(time.Second):
				continue
			}
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			dispatch(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("reading FIFO", "error", err)
		}
		_ = file.Close()

		// Small delay before reopening to prevent tight loops
		select {
		case <-stopping:
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// dispatch runs one FIFO command.
func dispatch(cmd string) {
	logger.Debug("received command", "command", cmd)
	switch cmd {
	case "start":
		TimerStart()
	case "pause":
		TimerPause()
	case "resume":
		TimerResume()
	case "toggle":
		TimerToggle()
	case "stop":
		TimerStop()
	case "inc":
		TimerInc()
	case "dec":
		TimerDec()
	case "gui":
		mu.RLock()
		cb := guiToggleCallback
		mu.RUnlock()
		if cb != nil {
			cb()
		}
	default:
		logger.Warn("unknown command", "command", cmd)
	}
}

func polybarActionButton(button string, action string) string {
	lbl := button
	if len(lbl) > 0 && lbl[len(lbl)-1] == '\n' {
		lbl = lbl[:len(lbl)-1]
	}
	return fmt.Sprintf("%%{A:%s:} %s %%{A}", action, lbl)
}

func pipeCommand(cmd string) string {
	return fmt.Sprintf("echo '%s' > %s", cmd, fifoPipePath)
}

// --- Output helpers ---

// output renders "[-] <time> [+]". Clicking the time toggles the
// timer; the middle mouse button opens the GUI.
func output() string {
	s := Snapshot()
	label := s.Display
	if label == "" {
		label = "--:--"
	}
	if !s.Running && s.Remaining < s.Total {
		label += " ||"
	}

	return polybarActionButton("[-]", pipeCommand("dec")) +
		fmt.Sprintf("%%{A2:%s:}", pipeCommand("gui")) +
		polybarActionButton(label, pipeCommand("toggle")) +
		"%{A}" +
		polybarActionButton("[+]", pipeCommand("inc"))
}

// --- Timer wrappers (null-safe) ---

func TimerStart() {
	if tm := getTimerManager(); tm != nil {
		tm.Start()
	}
}
func TimerPause() {
	if tm := getTimerManager(); tm != nil {
		tm.Pause()
	}
}
func TimerResume() {
	if tm := getTimerManager(); tm != nil {
		tm.Resume()
	}
}
func TimerToggle() {
	if tm := getTimerManager(); tm != nil {
		tm.Toggle()
	}
}
func TimerStop() {
	if tm := getTimerManager(); tm != nil {
		tm.Stop()
	}
}
func TimerInc() {
	if tm := getTimerManager(); tm != nil && !tm.Inc() {
		logger.Debug("inc ignored while a run is in progress")
	}
}
func TimerDec() {
	if tm := getTimerManager(); tm != nil && !tm.Dec() {
		logger.Debug("dec ignored while a run is in progress")
	}
}
func Subscribe() <-chan countdown.Snapshot {
	if tm := getTimerManager(); tm != nil {
		return tm.Subscribe()
	}
	return nil
}
func Snapshot() countdown.Snapshot {
	if tm := getTimerManager(); tm != nil {
		return tm.Snapshot()
	}
	return countdown.Snapshot{}
}
