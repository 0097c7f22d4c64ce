package probe

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// WorkerEnv is the environment variable that turns a process into a
// probe worker
const WorkerEnv = "RLSAMPLER_PROBE_WORKER"

// Result is the message a probe worker writes back to its parent, gob
// encoded so that NaN and infinite example values are preserved.
type Result struct {
	Examples *Examples
	Err      string
}

// WorkerError is an error reported by a probe worker
type WorkerError struct {
	Msg string
}

func (w *WorkerError) Error() string {
	return "probe worker: " + w.Msg
}

// Init turns the process into a probe worker if it was started by Run.
// Workers serve a single Target from stdin and exit. Otherwise Init
// returns immediately.
//
// Init must be the first call in main, or in TestMain of test binaries,
// of any program that calls Run, since Run re-executes the running
// binary.
func Init() {
	if os.Getenv(WorkerEnv) != "1" {
		return
	}
	os.Exit(serve(os.Stdin, os.Stdout))
}

// serve reads a JSON Target from r, probes it and writes the gob encoded
// Result to w.
// The returned value is the process exit code.
func serve(r io.Reader, w io.Writer) int {
	// Limit the worker to one OS thread before anything is computed
	runtime.GOMAXPROCS(1)

	var result Result
	var target Target
	if err := json.NewDecoder(r).Decode(&target); err != nil {
		result.Err = fmt.Sprintf("could not decode target: %v", err)
	} else if examples, err := target.Probe(); err != nil {
		result.Err = err.Error()
	} else {
		result.Examples = &examples
	}

	if err := gob.NewEncoder(w).Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "probe worker: could not encode result: %v\n",
			err)
		return 2
	}
	if result.Err != "" {
		return 1
	}
	return 0
}

// Run probes the Target in a fresh worker process and blocks until the
// worker exits. The worker is the running binary re-executed with
// WorkerEnv set, so Init must have been called at startup.
//
// Errors reported by the worker are returned as *WorkerError. If the
// worker crashes, the returned error carries its stderr. Cancelling ctx
// kills the worker.
func Run(ctx context.Context, target Target) (Examples, error) {
	exe, err := os.Executable()
	if err != nil {
		return Examples{}, fmt.Errorf("run: %w", err)
	}

	payload, err := json.Marshal(target)
	if err != nil {
		return Examples{}, fmt.Errorf("run: could not encode target: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe)
	cmd.Env = append(os.Environ(), WorkerEnv+"=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Examples{}, fmt.Errorf("run: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Examples{}, fmt.Errorf("run: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Examples{}, fmt.Errorf("run: could not start worker: %w", err)
	}

	var result Result
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		_, err := stdin.Write(payload)
		return err
	})
	g.Go(func() error {
		err := gob.NewDecoder(stdout).Decode(&result)
		io.Copy(ioutil.Discard, stdout)
		return err
	})
	pumpErr := g.Wait()
	waitErr := cmd.Wait()

	if result.Err != "" {
		return Examples{}, fmt.Errorf("run: %w", &WorkerError{result.Err})
	}
	if waitErr != nil {
		return Examples{}, fmt.Errorf("run: worker failed: %w: %s", waitErr,
			strings.TrimSpace(stderr.String()))
	}
	if pumpErr != nil {
		return Examples{}, fmt.Errorf("run: %w", pumpErr)
	}
	if result.Examples == nil {
		return Examples{}, errors.New("run: worker returned no examples")
	}

	examples := *result.Examples
	examples.fillShapes()
	return examples, nil
}
