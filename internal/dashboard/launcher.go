package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"kbaudit/internal/logging"
)

// Launcher starts pipeline stages in the background.
type Launcher interface {
	Launch(ctx context.Context, stage string) error
	// Running returns the stage currently executing, if any.
	Running() (string, bool)
}

// ErrAlreadyRunning is returned when a launched stage has not finished.
var ErrAlreadyRunning = errors.New("a stage is already running")

// CommandFunc builds the command that runs one stage.
type CommandFunc func(ctx context.Context, stage string) (*exec.Cmd, error)

// ProcessLauncher runs stages as child processes of the kbaudit binary.
// Child stderr is appended to the log file; stdout is discarded because the
// child logs to the same file itself.
type ProcessLauncher struct {
	logPath string
	command CommandFunc
	logger  *slog.Logger

	mu    sync.Mutex
	stage string
	done  chan struct{}
}

// NewProcessLauncher returns a launcher that re-executes the current binary
// with the given config path. command may be nil.
func NewProcessLauncher(configPath, logPath string, command CommandFunc, logger *slog.Logger) *ProcessLauncher {
	if command == nil {
		command = selfCommand(configPath)
	}
	return &ProcessLauncher{
		logPath: logPath,
		command: command,
		logger:  logging.NewComponentLogger(logger, "launcher"),
	}
}

func selfCommand(configPath string) CommandFunc {
	return func(ctx context.Context, stage string) (*exec.Cmd, error) {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		args := []string{stage}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		return exec.CommandContext(ctx, exe, args...), nil
	}
}

// Launch starts stage and returns once the process has started.
func (l *ProcessLauncher) Launch(ctx context.Context, stage string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stage != "" {
		return ErrAlreadyRunning
	}

	cmd, err := l.command(ctx, stage)
	if err != nil {
		return err
	}
	var logFile *os.File
	if l.logPath != "" {
		logFile, err = os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		cmd.Stderr = logFile
	} else {
		cmd.Stderr = io.Discard
	}
	cmd.Stdout = io.Discard

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return fmt.Errorf("start %s: %w", stage, err)
	}
	l.stage = stage
	l.done = make(chan struct{})
	l.logger.Info("stage launched", logging.String(logging.FieldStage, stage), logging.Int("pid", cmd.Process.Pid))

	go func(done chan struct{}) {
		err := cmd.Wait()
		if logFile != nil {
			_ = logFile.Close()
		}
		if err != nil {
			l.logger.Warn("stage process exited with error", logging.String(logging.FieldStage, stage), logging.Error(err))
		} else {
			l.logger.Info("stage process finished", logging.String(logging.FieldStage, stage))
		}
		l.mu.Lock()
		l.stage = ""
		l.mu.Unlock()
		close(done)
	}(l.done)
	return nil
}

// Running reports the active stage.
func (l *ProcessLauncher) Running() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stage, l.stage != ""
}

// Wait blocks until the active stage exits or ctx is done.
func (l *ProcessLauncher) Wait(ctx context.Context) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
