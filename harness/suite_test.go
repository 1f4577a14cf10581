package harness_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/uiharness/artifact"
	"github.com/networkteam/uiharness/config"
	"github.com/networkteam/uiharness/driver"
	"github.com/networkteam/uiharness/driver/drivertest"
	"github.com/networkteam/uiharness/harness"
)

// recordingT stands in for the test runner: it records failures and defers
// cleanups until finish is called.
type recordingT struct {
	testing.TB
	name     string
	failed   bool
	fatal    bool
	cleanups []func()
	logs     []string
}

func newRecordingT(t *testing.T, name string) *recordingT {
	return &recordingT{TB: t, name: name}
}

func (r *recordingT) Name() string     { return r.name }
func (r *recordingT) Failed() bool     { return r.failed }
func (r *recordingT) Fail()            { r.failed = true }
func (r *recordingT) Helper()          {}
func (r *recordingT) Cleanup(f func()) { r.cleanups = append(r.cleanups, f) }

func (r *recordingT) Errorf(format string, args ...any) {
	r.failed = true
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
}

func (r *recordingT) Fatalf(format string, args ...any) {
	r.Errorf(format, args...)
	r.fatal = true
}

func (r *recordingT) finish() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		BaseURL:     "http://shop.test",
		ResultsDir:  filepath.Join(t.TempDir(), "results"),
		Browser:     driver.Chromium,
		Headless:    true,
		WaitTimeout: time.Second,
		LogLevel:    "debug",
	}
}

func launch(t *testing.T) (*harness.Suite, *drivertest.Engine) {
	t.Helper()

	engine := drivertest.NewEngine()
	suite, err := harness.Launch(harness.Options{
		Config:  testConfig(t),
		Engine:  engine,
		Console: &bytes.Buffer{},
	})
	require.NoError(t, err)
	return suite, engine
}

func TestLaunch(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	stale := filepath.Join(cfg.ResultsDir, "traces", "TestOld.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	engine := drivertest.NewEngine()
	suite, err := harness.Launch(harness.Options{Config: cfg, Engine: engine, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.NoFileExists(t, stale, "results must be reset at suite start")
	assert.FileExists(t, filepath.Join(cfg.ResultsDir, harness.LogFileName))
	require.Len(t, engine.Launches(), 1)
	assert.Equal(t, cfg.LaunchOptions(), engine.Launches()[0])

	require.NoError(t, suite.Close())
	assert.True(t, engine.Stopped())
	assert.False(t, engine.Browser.IsConnected())
}

func TestLaunch_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Browser = "lynx"

	_, err := harness.Launch(harness.Options{Config: cfg, Engine: drivertest.NewEngine(), Console: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestLaunch_BrowserError(t *testing.T) {
	t.Parallel()

	engine := drivertest.NewEngine()
	engine.LaunchErr = errors.New("executable not found")

	_, err := harness.Launch(harness.Options{Config: testConfig(t), Engine: engine, Console: &bytes.Buffer{}})
	assert.ErrorIs(t, err, engine.LaunchErr)
	assert.True(t, engine.Stopped())
}

func TestSuite_Session_Passed(t *testing.T) {
	t.Parallel()

	suite, engine := launch(t)
	defer suite.Close()

	rt := newRecordingT(t, "TestSignUp_Successful")
	sess := suite.Session(rt)
	require.NotNil(t, sess)
	assert.Equal(t, 1, suite.OpenContexts())

	b := suite.Bound(sess)
	assert.Equal(t, "http://shop.test", b.BaseURL)
	assert.Equal(t, time.Second, b.WaitTimeout)

	rt.finish()

	assert.False(t, rt.failed, "teardown of a passed test must not fail it: %v", rt.logs)
	assert.Equal(t, 0, suite.OpenContexts())
	assert.Equal(t, 0, suite.Manager().OpenSessions())
	assert.NoFileExists(t, suite.Store().TracePath("TestSignUp_Successful"))
	assert.True(t, engine.Browser.Created()[0].Closed())
}

func TestSuite_Session_Failed(t *testing.T) {
	t.Parallel()

	suite, _ := launch(t)
	defer suite.Close()

	rt := newRecordingT(t, "TestLogIn_Failed/wrong password")
	suite.Session(rt)
	rt.Errorf("expected dialog message")

	rt.finish()

	artifacts, err := suite.Store().List()
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, artifact.FileName("TestLogIn_Failed/wrong password"), artifacts[0].TestName)
	assert.FileExists(t, suite.Store().TracePath("TestLogIn_Failed/wrong password"))
	assert.FileExists(t, suite.Store().FailedVideoPath("TestLogIn_Failed/wrong password"))
}

func TestSuite_Session_EngineUnavailable(t *testing.T) {
	t.Parallel()

	suite, engine := launch(t)
	defer suite.Close()
	engine.Browser.Disconnect()

	rt := newRecordingT(t, "TestX")
	suite.Session(rt)

	assert.True(t, rt.fatal)
	require.NotEmpty(t, rt.logs)
	assert.Contains(t, rt.logs[0], "browser engine unavailable")
}

func TestSuite_Close_ReportsLeftoverSessions(t *testing.T) {
	t.Parallel()

	suite, _ := launch(t)

	_, err := suite.Manager().Open("TestLeaked")
	require.NoError(t, err)

	err = suite.Close()
	assert.ErrorContains(t, err, "1 sessions still open")
	assert.Equal(t, 0, suite.Manager().OpenSessions())
	// Leftovers are closed as failed so their evidence survives
	assert.FileExists(t, suite.Store().TracePath("TestLeaked"))
}

func TestSuite_NoLeakedContexts(t *testing.T) {
	t.Parallel()

	suite, engine := launch(t)

	for i := 0; i < 10; i++ {
		rt := newRecordingT(t, fmt.Sprintf("TestCase_%d", i))
		suite.Session(rt)
		if i%3 == 0 {
			rt.Fail()
		}
		rt.finish()
	}

	assert.Len(t, engine.Browser.Created(), 10)
	assert.Equal(t, 0, suite.OpenContexts())
	require.NoError(t, suite.Close())
}
