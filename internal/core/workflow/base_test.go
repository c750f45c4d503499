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

// Suite setup for the workflow tests: shared configuration, logging, and
// the OpenTelemetry SDK, initialized once in TestMain so the chain's spans
// and counters run against a real provider instead of the no-op default.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/nishitbohra/vidsense/internal/telemetry"
	"github.com/nishitbohra/vidsense/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const tName = "github.com/nishitbohra/vidsense/tests/workflow"

var logger = otelslog.NewLogger(tName)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testutil.GetConfig()

	telemetry.SetupLogging()
	shutdown, err := telemetry.SetupOpenTelemetry(ctx, cfg.Application.Name)
	if err != nil {
		panic(err)
	}

	logger.Info("completed test setup")

	exitCode := m.Run()

	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}

	os.Exit(exitCode)
}
