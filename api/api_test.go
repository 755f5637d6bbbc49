package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dancebot/pkg/choreography"
	"dancebot/pkg/config"
	"dancebot/pkg/device"
	_ "dancebot/pkg/device/models"
	"dancebot/pkg/servo"
)

type sleepClock struct {
	clock.Clock
}

func (c *sleepClock) Sleep(time.Duration) {}

type testServer struct {
	router  *gin.Engine
	manager *device.DeviceManager
	robot   device.Device
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lib, err := choreography.DefaultLibrary()
	require.NoError(t, err)
	cfg := config.GetDefaultConfig()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	env := device.Environment{
		Motion:  cfg.Motion,
		Dance:   cfg.Dance,
		Library: lib,
		Clock:   &sleepClock{Clock: clock.New()},
		Logger:  logger,
	}

	manager := device.NewDeviceManager()
	robot, err := device.CreateDevice(cfg.Robots[0], env)
	require.NoError(t, err)
	require.NoError(t, robot.Connect())
	require.NoError(t, manager.RegisterDevice(robot))
	t.Cleanup(func() { _ = manager.Close() })

	router := gin.New()
	NewServer(manager, cfg, env).SetupRoutes(router)
	return &testServer{router: router, manager: manager, robot: robot}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, ApiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestSystemRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodGet, "/api/v1/system/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", resp.Status)

	w, resp = ts.do(t, http.MethodGet, "/api/v1/system/models", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	models := resp.Data.(map[string]any)["models"]
	assert.ElementsMatch(t, []any{"esp32", "feetech", "sim"}, models)

	w, resp = ts.do(t, http.MethodGet, "/api/v1/system/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 1, data["totalRobots"])
	assert.EqualValues(t, 1, data["activeRobots"])
	assert.EqualValues(t, 6, data["songs"])
}

func TestRobotRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodGet, "/api/v1/robots", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp.Data.(map[string]any)["total"])

	w, resp = ts.do(t, http.MethodGet, "/api/v1/robots/dancer", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sim", resp.Data.(map[string]any)["model"])
	assert.Equal(t, "stop", resp.Data.(map[string]any)["base"])

	w, resp = ts.do(t, http.MethodGet, "/api/v1/robots/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", resp.Status)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots", map[string]any{"id": "extra"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots", map[string]any{"id": "extra"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots", map[string]any{"id": "bridge", "model": "esp32"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots", map[string]any{"id": "x", "model": "hoverboard"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/v1/robots/extra/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, http.MethodDelete, "/api/v1/robots/extra", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, http.MethodDelete, "/api/v1/robots/extra", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServoRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/robots/dancer/servos/move",
		map[string]any{"channel": "left_shoulder", "angle": 120, "steps": 5})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 120.0, angleOf(ts.robot, servo.LeftShoulder))

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/servos/write",
		map[string]any{"channel": "leg1_knee", "angle": 45})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 45.0, angleOf(ts.robot, servo.Leg1Knee))

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/servos/move",
		map[string]any{"channel": 99, "angle": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/servos/move",
		map[string]any{"channel": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := ts.do(t, http.MethodGet, "/api/v1/robots/dancer/actuators", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 12, resp.Data.(map[string]any)["total"])

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/poses/preset/arms_up", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/poses/preset/moonwalk", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/poses/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	for _, act := range ts.robot.Actuators() {
		assert.Equal(t, act.Calibration.Home, act.Angle, act.Name)
	}

	w, resp = ts.do(t, http.MethodGet, "/api/v1/robots/dancer/poses", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp.Data.(map[string]any)["presets"], "home")
}

func TestBaseRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/robots/dancer/base/drive",
		map[string]any{"direction": "forward", "durationMs": 20})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stop", ts.robot.BaseState().String())

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/base/drive",
		map[string]any{"direction": "stop", "durationMs": 20})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/base/drive",
		map[string]any{"direction": "sideways", "durationMs": 20})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/base/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDanceRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/titanium/steps/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp.Message)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/titanium/steps/99", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/titanium/steps/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/macarena/steps/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/pause", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/start", map[string]any{"song": "macarena"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/start",
		map[string]any{"song": "titanium", "intervalMs": 1, "fromStep": 17})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp.Data.(map[string]any)["runId"])
	ts.robot.GetDanceEngine().Wait()

	w, resp = ts.do(t, http.MethodGet, "/api/v1/robots/dancer/dances/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp.Data.(map[string]any)["running"])

	w, resp = ts.do(t, http.MethodGet, "/api/v1/robots/dancer/dances", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data.(map[string]any)["songs"], 6)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/dances/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSongRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodGet, "/api/v1/songs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 6, resp.Data.(map[string]any)["total"])

	w, resp = ts.do(t, http.MethodGet, "/api/v1/songs/stereo", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	detail := resp.Data.(map[string]any)
	assert.Equal(t, "stereo-love", detail["name"])
	assert.Len(t, detail["steps"], 28)

	w, _ = ts.do(t, http.MethodGet, "/api/v1/songs/macarena", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLEDRoute(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/robots/dancer/led", map[string]any{"pattern": "rainbow"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rainbow", ts.robot.GetLEDPattern())

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/led", map[string]any{"pattern": "disco"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func angleOf(dev device.Device, ch servo.Channel) float64 {
	for _, act := range dev.Actuators() {
		if act.Channel == ch {
			return act.Angle
		}
	}
	return -1
}

func TestComponentRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodGet, "/api/v1/robots/dancer/components", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 14, resp.Data.(map[string]any)["total"])

	require.NoError(t, ts.robot.SetLEDPattern("chase"))
	w, resp = ts.do(t, http.MethodGet, "/api/v1/robots/dancer/components?type=light", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	components := resp.Data.(map[string]any)["components"].([]any)
	require.Len(t, components, 1)
	light := components[0].(map[string]any)
	assert.Equal(t, "led", light["id"])
	assert.Equal(t, "chase", light["configuration"].(map[string]any)["pattern"])

	w, resp = ts.do(t, http.MethodGet, "/api/v1/robots/dancer/components?type=base", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	components = resp.Data.(map[string]any)["components"].([]any)
	require.Len(t, components, 1)
	assert.Equal(t, "stop", components[0].(map[string]any)["configuration"].(map[string]any)["state"])

	w, _ = ts.do(t, http.MethodGet, "/api/v1/robots/dancer/components?type=sensor", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodGet, "/api/v1/robots/ghost/components", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServoRoutes_ChannelRequired(t *testing.T) {
	ts := newTestServer(t)
	before := angleOf(ts.robot, servo.LeftShoulder)

	w, _ := ts.do(t, http.MethodPost, "/api/v1/robots/dancer/servos/move", map[string]any{"angle": 30})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/servos/write", map[string]any{"angle": 30})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, before, angleOf(ts.robot, servo.LeftShoulder))

	w, _ = ts.do(t, http.MethodPost, "/api/v1/robots/dancer/servos/write", map[string]any{"channel": 0, "angle": 30})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30.0, angleOf(ts.robot, servo.LeftShoulder))
}

func TestMotionRoutes_WaitForRunningStep(t *testing.T) {
	ts := newTestServer(t)
	engine := ts.robot.GetDanceEngine()

	entered := make(chan struct{})
	release := make(chan struct{})
	stepDone := make(chan error, 1)
	go func() {
		stepDone <- engine.RunExclusive(func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	routes := []struct {
		path string
		body string
	}{
		{"/api/v1/robots/dancer/servos/move", `{"channel": "left_shoulder", "angle": 120}`},
		{"/api/v1/robots/dancer/servos/write", `{"channel": "leg1_knee", "angle": 30}`},
		{"/api/v1/robots/dancer/base/drive", `{"direction": "forward", "durationMs": 5}`},
		{"/api/v1/robots/dancer/poses/preset/arms_up", ``},
		{"/api/v1/robots/dancer/poses/reset", ``},
	}
	codes := make(chan int, len(routes))
	for _, route := range routes {
		go func(path, body string) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)
			codes <- w.Code
		}(route.path, route.body)
	}

	select {
	case code := <-codes:
		t.Fatalf("motion request finished with %d while a step held the robot", code)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-stepDone)
	for range routes {
		assert.Equal(t, http.StatusOK, <-codes)
	}
}
