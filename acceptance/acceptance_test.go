//go:build acceptance
// +build acceptance

package acceptance

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/networkteam/uiharness/config"
	"github.com/networkteam/uiharness/driver"
	"github.com/networkteam/uiharness/harness"
)

var (
	suite *harness.Suite
	app   *TestApp
)

// TestMain installs the browser, launches it once for all tests and verifies
// that no browser context outlives the run.
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	cfg, err := config.Load(os.Getenv("UIHARNESS_CONFIG"))
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	if err := driver.Install(cfg.Browser); err != nil {
		log.Fatalf("could not install playwright: %v", err)
	}

	// Without a target, run against the local storefront
	if cfg.BaseURL == "" {
		app = NewTestApp(slog.Default())
		defer app.Close()
		cfg.BaseURL = app.URL
	}

	suite, err = harness.Launch(harness.Options{Config: cfg})
	if err != nil {
		log.Fatalf("could not launch suite: %v", err)
	}

	code := m.Run()

	if n := suite.OpenContexts(); n != 0 {
		fmt.Fprintf(os.Stderr, "%d browser contexts still open after run\n", n)
		code = 1
	}
	if err := suite.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing suite: %v\n", err)
		code = 1
	}
	return code
}
