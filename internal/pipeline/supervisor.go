package pipeline

import (
	"io"
	"log"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Role identifies a managed process's job in the pipeline.
type Role string

const (
	RoleReceiver Role = "receiver"
	RolePlayer   Role = "player"
	RoleRecorder Role = "recorder"
)

// ExitClass classifies a process exit after the intentional-stop check.
type ExitClass string

const (
	ExitIntentional ExitClass = "intentional"
	ExitNormal      ExitClass = "normal"
	ExitAbnormal    ExitClass = "abnormal"
)

type procEventKind int

const (
	kindData procEventKind = iota
	kindDiag
	kindExit
	kindIOError
)

// procEvent is a notification delivered to the pipeline loop. The sup
// pointer lets the loop tell a current process apart from a stale one
// whose events are still draining.
type procEvent struct {
	sup  *supervisor
	role Role
	kind procEventKind
	data []byte
	err  error
	exit exitInfo
}

// exitInfo describes a finished process. The class is decided at reap
// time from the intentional-stop flag, so a stop requested after the
// process already died does not rewrite history.
type exitInfo struct {
	code  int
	err   error
	class ExitClass
}

// inputQueueSize bounds the per-consumer stdin queue. A consumer that
// stops draining loses chunks rather than stalling the receiver side.
const inputQueueSize = 64

// supervisor owns the lifecycle of one external process: spawn, queued
// stdin writes, graceful stop with kill escalation, and exit
// classification. Write, CloseInput and the stop methods are called
// only from the pipeline loop; the exit arrives as an event like any
// other.
type supervisor struct {
	role   Role
	log    *log.Logger
	events chan<- procEvent

	cmd   *exec.Cmd
	stdin io.WriteCloser
	input chan []byte

	running     atomic.Bool
	intentional atomic.Bool
	dropped     atomic.Int64
	closeOnce   sync.Once
	done        chan struct{}
}

func newSupervisor(role Role, logger *log.Logger, events chan<- procEvent) *supervisor {
	return &supervisor{
		role:   role,
		log:    logger,
		events: events,
		done:   make(chan struct{}),
	}
}

// start launches the process. A launch failure is returned synchronously
// as *SpawnFailure and no events are emitted. With wantStdin the process
// gets a queued stdin writer; with capture its stdout and stderr are
// read and forwarded as data and diagnostic events, otherwise both are
// discarded.
func (s *supervisor) start(bin string, args []string, wantStdin, capture bool) error {
	cmd := exec.Command(bin, args...)

	if wantStdin {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return &SpawnFailure{Role: s.role, Err: err}
		}
		s.stdin = stdin
		s.input = make(chan []byte, inputQueueSize)
	}

	var stdout, stderr io.ReadCloser
	if capture {
		var err error
		if stdout, err = cmd.StdoutPipe(); err != nil {
			return &SpawnFailure{Role: s.role, Err: err}
		}
		if stderr, err = cmd.StderrPipe(); err != nil {
			return &SpawnFailure{Role: s.role, Err: err}
		}
	}

	if err := cmd.Start(); err != nil {
		return &SpawnFailure{Role: s.role, Err: err}
	}
	s.cmd = cmd
	s.running.Store(true)

	var readers sync.WaitGroup
	if capture {
		readers.Add(2)
		go s.readData(stdout, &readers)
		go s.readDiagnostics(stderr, &readers)
	}
	if wantStdin {
		go s.writeLoop()
	}
	go s.reap(&readers)
	return nil
}

// write queues one chunk for the process stdin. It never blocks: a full
// queue drops the chunk and reports false. The caller must not reuse
// the slice.
func (s *supervisor) write(b []byte) bool {
	if s.input == nil || !s.running.Load() {
		return false
	}
	select {
	case s.input <- b:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// closeInput closes the stdin queue. Chunks already queued still drain
// before the pipe closes, which lets an encoder flush and finalize its
// output. The loop must not call write after this.
func (s *supervisor) closeInput() {
	s.closeOnce.Do(func() {
		if s.input != nil {
			close(s.input)
		}
	})
}

// markIntentional forces the intentional-stop flag without touching the
// process, used on daemon shutdown so teardown exits are not reported
// as crashes.
func (s *supervisor) markIntentional() {
	s.intentional.Store(true)
}

// requestStop marks the stop intentional and begins teardown: SIGTERM,
// a bounded wait, then SIGKILL. It returns immediately; the exit event
// follows once the process is reaped.
func (s *supervisor) requestStop(grace time.Duration) {
	s.intentional.Store(true)
	if !s.running.Load() {
		return
	}
	go func() {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-s.done:
		case <-time.After(grace):
			s.log.Printf("pipeline: %s ignored SIGTERM, killing", s.role)
			_ = s.cmd.Process.Kill()
		}
	}()
}

// stopByClosingInput performs the encoder-style stop: close stdin, give
// the process time to flush and exit on EOF, and only then escalate to
// SIGTERM and SIGKILL.
func (s *supervisor) stopByClosingInput(flushWait time.Duration) {
	s.intentional.Store(true)
	if !s.running.Load() {
		return
	}
	s.closeInput()
	go func() {
		select {
		case <-s.done:
			return
		case <-time.After(flushWait):
		}
		s.log.Printf("pipeline: %s still running after input close, terminating", s.role)
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-s.done:
		case <-time.After(time.Second):
			_ = s.cmd.Process.Kill()
		}
	}()
}

// writeLoop drains the stdin queue into the process, exiting when the
// queue closes or the process dies. On a write error it reports once
// and stops; later chunks fill the queue and drop.
func (s *supervisor) writeLoop() {
	defer s.stdin.Close()
	for {
		select {
		case b, ok := <-s.input:
			if !ok {
				return
			}
			if _, err := s.stdin.Write(b); err != nil {
				if !s.intentional.Load() {
					s.events <- procEvent{sup: s, role: s.role, kind: kindIOError, err: err}
				}
				return
			}
		case <-s.done:
			return
		}
	}
}

// readData forwards stdout chunks as data events. Each event carries a
// private copy since the read buffer is reused.
func (s *supervisor) readData(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.events <- procEvent{sup: s, role: s.role, kind: kindData, data: chunk}
		}
		if err != nil {
			if err != io.EOF && !s.intentional.Load() {
				s.events <- procEvent{sup: s, role: s.role, kind: kindIOError, err: err}
			}
			return
		}
	}
}

// readDiagnostics forwards raw stderr chunks as diagnostic events. Line
// splitting happens in the pipeline loop so a line broken across two
// reads is reassembled before parsing.
func (s *supervisor) readDiagnostics(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, 16*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.events <- procEvent{sup: s, role: s.role, kind: kindDiag, data: chunk}
		}
		if err != nil {
			return
		}
	}
}

// reap waits for the readers to drain, then for the process itself, and
// emits the exit event. Reader-before-wait ordering guarantees the exit
// is observed only after all of the process's queued output.
func (s *supervisor) reap(readers *sync.WaitGroup) {
	readers.Wait()
	err := s.cmd.Wait()

	code := 0
	if err != nil {
		code = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
	}

	class := ExitNormal
	switch {
	case s.intentional.Load():
		class = ExitIntentional
	case err != nil:
		class = ExitAbnormal
	}

	s.running.Store(false)
	close(s.done)
	s.events <- procEvent{sup: s, role: s.role, kind: kindExit, exit: exitInfo{code: code, err: err, class: class}}
}
