package backend

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"hotkeyd/pkg/logx"
)

const defaultKillTimeout = 3 * time.Second

// execBackend performs real process control through os/exec and inherits the
// logged dry-run behavior of the null driver for every other capability.
// It exists so bindings like start_process/kill_process work on any platform
// without an OS-specific window/input layer.
//
// Spawned processes are tracked until reaped so kill escalation can signal
// through the original process handle. Signalling a reaped handle is a no-op,
// which is what makes the delayed SIGKILL safe against pid reuse.
type execBackend struct {
	*nullBackend
	killTimeout time.Duration

	mu    sync.Mutex
	procs map[int]*exec.Cmd
}

func newExec(cfg Config, log logx.Logger) *execBackend {
	kt := cfg.KillTimeout
	if kt <= 0 {
		kt = defaultKillTimeout
	}
	return &execBackend{
		nullBackend: &nullBackend{
			log:   log.With(logx.String("backend", "exec")),
			hooks: map[string]func(){},
		},
		killTimeout: kt,
		procs:       map[int]*exec.Cmd{},
	}
}

func (b *execBackend) Name() string { return "exec" }

func (b *execBackend) StartProcess(command string, args []string) (int, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return 0, errors.New("empty command")
	}
	cmd := exec.Command(command, args...)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	b.mu.Lock()
	b.procs[pid] = cmd
	b.mu.Unlock()
	b.log.Info("process started", logx.String("command", command), logx.Int("pid", pid))

	// Reap the child so finished processes don't linger as zombies.
	go func() {
		_ = cmd.Wait()
		b.mu.Lock()
		delete(b.procs, pid)
		b.mu.Unlock()
	}()
	return pid, nil
}

func (b *execBackend) KillProcess(pid int, name string) error {
	if pid > 0 {
		b.mu.Lock()
		cmd := b.procs[pid]
		b.mu.Unlock()

		if cmd != nil {
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				return err
			}
			// Escalate through the tracked handle: once Wait has reaped the
			// child, Kill reports ErrProcessDone instead of signalling
			// whatever now owns the pid.
			p := cmd.Process
			go func() {
				time.Sleep(b.killTimeout)
				_ = p.Kill()
			}()
			b.log.Info("process signalled", logx.Int("pid", pid))
			return nil
		}

		// Not one of ours: a single SIGTERM, no delayed escalation. The pid
		// may be recycled by the time a timer fires, so a late SIGKILL could
		// hit an unrelated process.
		p, err := os.FindProcess(pid)
		if err != nil {
			return err
		}
		if err := p.Signal(syscall.SIGTERM); err != nil {
			return err
		}
		b.log.Info("process signalled", logx.Int("pid", pid))
		return nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("kill process: need pid or name")
	}
	out, err := exec.Command("pkill", "-TERM", "-x", name).CombinedOutput()
	if err != nil {
		// pkill exits 1 when nothing matched; surface that as a plain error.
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = "no process matched " + name
		}
		return errors.New(msg)
	}
	b.log.Info("process signalled", logx.String("name", name))
	return nil
}

// tracked reports whether the pid belongs to a live spawned process.
func (b *execBackend) tracked(pid int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.procs[pid]
	return ok
}
