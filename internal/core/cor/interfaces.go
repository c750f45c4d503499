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

// Package cor (Chain of Responsibility) provides the building blocks for the
// analysis pipeline. A workflow is a Chain of Commands sharing a Context: each
// command reads its input from the context, does one unit of work, and writes
// its output back for the next command. Errors recorded on the context stop
// the chain unless it is configured to continue, which is how the pipeline
// distinguishes hard stages (transcript, summary, sentiment) from soft ones
// (embeddings).
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the default keys for a command's primary input and
// output. After each command runs, the chain moves the value under CtxOut to
// CtxIn so commands without explicit parameter names compose positionally.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state for one workflow execution: a property bag for
// stage outputs, the collected errors, and the temporary files to clean up.
// It also carries the request-scoped context.Context so cancellation reaches
// every stage's subprocess wait.
type Context interface {
	// SetContext sets the standard Go context.Context for the execution.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.Context.
	GetContext() context.Context

	// Add stores a key-value pair, returning the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a value by key, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// AddError records an error under the name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all errors recorded so far.
	GetErrors() map[string]error

	// HasErrors reports whether any error has been recorded.
	HasErrors() bool

	// AddTempFile tracks a temporary file for cleanup at the end of the run.
	AddTempFile(file string)

	// GetTempFiles returns all tracked temporary file paths.
	GetTempFiles() []string

	// Close removes all tracked temporary files. Defer it when creating
	// a context.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, instrumented unit of work within a chain.
type Command interface {
	Executable

	// GetName returns the command's name, used for tracing, metrics, and
	// error attribution.
	GetName() string

	// GetInputParam returns the context key the command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions hold for the
	// given context.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains can nest.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after a
	// command records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
