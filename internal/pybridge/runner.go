// Copyright 2025 VidSense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pybridge runs the external Python analysis scripts and normalizes
// every possible outcome into a single typed Result.
//
// Logic flow for one invocation:
//
//  1. If the caller supplied a structured payload, marshal it to a scoped
//     temporary file and pass the file path as the final argument. Large
//     transcripts do not survive command lines; a file avoids both length
//     limits and shell escaping.
//  2. Wait on the spawn rate limiter so a burst of requests cannot fork a
//     process storm.
//  3. Start the interpreter with the script and arguments under a context
//     carrying the stage deadline, collecting stdout and stderr separately.
//  4. Classify the outcome: deadline expiry kills the child and yields
//     KindTimeout; a non-zero exit yields KindExecError with the stderr
//     tail; stdout that is not a single JSON object yields KindParseError
//     with the stdout head; otherwise KindOK with the raw JSON.
//  5. Remove the temporary payload file regardless of outcome.
//
// The runner never returns a Go error for a script-side problem: all failure
// modes are values in the Result, because the coordinator must distinguish
// "fail the pipeline" from "log and continue" per stage.
package pybridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// Script selects one of the known analysis scripts. A closed set, not a
// free-form path: callers can never smuggle an arbitrary executable name
// into the spawn.
type Script string

const (
	ScriptTranscript Script = "transcript_extractor.py"
	ScriptSummarizer Script = "summarizer.py"
	ScriptSentiment  Script = "sentiment_analyzer.py"
	ScriptEmbeddings Script = "embedding_generator.py"
	ScriptSearch     Script = "semantic_search.py"
)

// Kind tags the outcome of a script invocation.
type Kind int

const (
	// KindOK means the script exited 0 and produced a parseable JSON object.
	KindOK Kind = iota
	// KindExecError means the script could not be started or exited non-zero.
	KindExecError
	// KindTimeout means the stage deadline expired and the child was killed.
	KindTimeout
	// KindParseError means the script exited 0 but its stdout was not JSON.
	KindParseError
	// KindCanceled means the caller's context was canceled mid-run.
	KindCanceled
)

// excerptLen bounds the stderr/stdout fragments carried in Results; full
// script output can be megabytes of model-loading noise.
const excerptLen = 500

// Result is the uniform envelope for one script invocation.
type Result struct {
	Kind     Kind
	Data     json.RawMessage // Parsed stdout, set only for KindOK.
	ExitCode int             // Set for KindExecError; -1 when the process never started.
	Stderr   string          // Tail of stderr, bounded.
	Stdout   string          // Head of stdout, set for KindParseError.
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// FailureDetail builds a short diagnostic string for error envelopes.
func (r Result) FailureDetail() string {
	switch r.Kind {
	case KindTimeout:
		return "script timed out"
	case KindCanceled:
		return "request canceled"
	case KindParseError:
		return fmt.Sprintf("unparseable script output: %s", r.Stdout)
	default:
		return fmt.Sprintf("script exited with code %d: %s", r.ExitCode, r.Stderr)
	}
}

// Runner is the interface the pipeline commands depend on; tests substitute
// a stub to script stage outcomes.
type Runner interface {
	// Run invokes a script. The payload, when non-nil, is JSON-marshaled to
	// a temporary file whose path is appended to args. The timeout applies
	// to the whole invocation; cancellation of ctx also terminates the
	// child.
	Run(ctx context.Context, script Script, args []string, payload any, timeout time.Duration) Result
}

// ScriptRunner runs scripts with a real interpreter. It is safe for
// concurrent use.
type ScriptRunner struct {
	Interpreter string
	ScriptsDir  string
	limiter     *rate.Limiter
}

// NewScriptRunner creates a runner. ratePerSecond limits script spawns
// across all concurrent requests; burst allows short spikes.
func NewScriptRunner(interpreter, scriptsDir string, ratePerSecond, burst int) *ScriptRunner {
	if ratePerSecond <= 0 {
		ratePerSecond = 4
	}
	if burst <= 0 {
		burst = ratePerSecond
	}
	return &ScriptRunner{
		Interpreter: interpreter,
		ScriptsDir:  scriptsDir,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (r *ScriptRunner) Run(ctx context.Context, script Script, args []string, payload any, timeout time.Duration) Result {
	fullArgs := make([]string, 0, len(args)+2)
	fullArgs = append(fullArgs, filepath.Join(r.ScriptsDir, string(script)))
	fullArgs = append(fullArgs, args...)

	if payload != nil {
		tempFile, err := writePayloadFile(payload)
		if err != nil {
			return Result{Kind: KindExecError, ExitCode: -1, Stderr: excerpt(err.Error(), excerptLen)}
		}
		defer os.Remove(tempFile)
		fullArgs = append(fullArgs, tempFile)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return Result{Kind: KindCanceled, ExitCode: -1, Stderr: excerpt(err.Error(), excerptLen)}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Interpreter, fullArgs...)
	// If the child ignores the kill signal, give up waiting on its pipes
	// after a grace period rather than hanging the request forever.
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		return Result{Kind: KindTimeout, ExitCode: -1, Stderr: excerptTail(stderr.String(), excerptLen)}
	case ctx.Err() != nil:
		return Result{Kind: KindCanceled, ExitCode: -1, Stderr: excerptTail(stderr.String(), excerptLen)}
	case err != nil:
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return Result{Kind: KindExecError, ExitCode: code, Stderr: excerptTail(stderr.String(), excerptLen)}
	}

	raw := bytes.TrimSpace(stdout.Bytes())
	if !json.Valid(raw) || len(raw) == 0 || raw[0] != '{' {
		return Result{
			Kind:   KindParseError,
			Stdout: excerpt(string(raw), excerptLen),
			Stderr: excerptTail(stderr.String(), excerptLen),
		}
	}

	return Result{Kind: KindOK, Data: json.RawMessage(raw)}
}

// CheckEnvironment verifies that the interpreter is present and runnable.
// Used by the health endpoint.
func (r *ScriptRunner) CheckEnvironment(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, r.Interpreter, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("python interpreter %q not available: %w", r.Interpreter, err)
	}
	return nil
}

func writePayloadFile(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal script payload: %w", err)
	}
	f, err := os.CreateTemp("", "vidsense-payload-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create payload file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write payload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close payload file: %w", err)
	}
	return f.Name(), nil
}

func excerpt(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func excerptTail(s string, n int) string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
