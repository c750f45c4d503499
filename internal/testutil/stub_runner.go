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

package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nishitbohra/vidsense/internal/pybridge"
)

// StubRunner replays canned results per script, recording every invocation.
// It stands in for the Python bridge in command, workflow, and service tests.
type StubRunner struct {
	mu      sync.Mutex
	results map[pybridge.Script]pybridge.Result
	calls   []StubCall
}

// StubCall records one Run invocation.
type StubCall struct {
	Script  pybridge.Script
	Args    []string
	Payload any
	Timeout time.Duration
}

func NewStubRunner() *StubRunner {
	return &StubRunner{results: make(map[pybridge.Script]pybridge.Result)}
}

// Respond sets a successful JSON response for a script.
func (r *StubRunner) Respond(script pybridge.Script, body string) *StubRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[script] = pybridge.Result{Kind: pybridge.KindOK, Data: json.RawMessage(body)}
	return r
}

// Fail sets a non-OK result for a script.
func (r *StubRunner) Fail(script pybridge.Script, result pybridge.Result) *StubRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[script] = result
	return r
}

func (r *StubRunner) Run(_ context.Context, script pybridge.Script, args []string, payload any, timeout time.Duration) pybridge.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, StubCall{Script: script, Args: args, Payload: payload, Timeout: timeout})
	if res, ok := r.results[script]; ok {
		return res
	}
	return pybridge.Result{Kind: pybridge.KindExecError, Stderr: "no stub response configured for " + string(script)}
}

// Calls returns a copy of the recorded invocations.
func (r *StubRunner) Calls() []StubCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StubCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsTo returns the invocations of one script.
func (r *StubRunner) CallsTo(script pybridge.Script) []StubCall {
	var out []StubCall
	for _, call := range r.Calls() {
		if call.Script == script {
			out = append(out, call)
		}
	}
	return out
}
