package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/kozaktomas/door-dashboard/internal/faceengine"
	"github.com/kozaktomas/door-dashboard/internal/metrics"
	"github.com/kozaktomas/door-dashboard/internal/registry"
	"github.com/kozaktomas/door-dashboard/internal/store/mock"
)

// fakeDetector returns canned detections without calling a face engine.
type fakeDetector struct {
	faces []faceengine.Detection
	err   error
}

func (f *fakeDetector) DetectFaces(ctx context.Context, imageData []byte) ([]faceengine.Detection, error) {
	return f.faces, f.err
}

func singleFace() []faceengine.Detection {
	return []faceengine.Detection{
		{FaceIndex: 0, Dim: 4, Embedding: []float64{0.1, 0.2, 0.3, 0.4}, DetScore: 0.99},
	}
}

// testService builds a registry service on a temp dir, mock store and the
// given detector.
func testService(t *testing.T, detector registry.FaceDetector) (*registry.Service, *mock.Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "known_faces")
	st := mock.New()
	events := &config.EventsConfig{Labels: map[string]string{
		"access_granted": "Access granted",
	}}
	return registry.NewService(registry.NewRegistry(dir), st, detector, events), st, dir
}

// testJPEGBase64 returns a small valid JPEG as base64.
func testJPEGBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 180, G: 140, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// formRequest creates a POST request with urlencoded form values.
func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func testCollector() *metrics.Collector {
	return metrics.NewCollector()
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertEnvelope checks the {status, message} envelope of a response.
func assertEnvelope(t *testing.T, recorder *httptest.ResponseRecorder, status string) map[string]any {
	t.Helper()
	var body map[string]any
	parseJSONResponse(t, recorder, &body)
	if body["status"] != status {
		t.Errorf("expected status %q, got %v\nBody: %s", status, body["status"], recorder.Body.String())
	}
	if _, ok := body["message"].(string); !ok {
		t.Errorf("expected a message string, got %v", body["message"])
	}
	return body
}
