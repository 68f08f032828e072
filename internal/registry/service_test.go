package registry

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/kozaktomas/door-dashboard/internal/faceengine"
	"github.com/kozaktomas/door-dashboard/internal/npy"
	"github.com/kozaktomas/door-dashboard/internal/store"
	"github.com/kozaktomas/door-dashboard/internal/store/mock"
)

// fakeDetector returns canned detections without calling a face engine.
type fakeDetector struct {
	faces []faceengine.Detection
	err   error
	calls int
}

func (f *fakeDetector) DetectFaces(ctx context.Context, imageData []byte) ([]faceengine.Detection, error) {
	f.calls++
	return f.faces, f.err
}

func testEvents() *config.EventsConfig {
	return &config.EventsConfig{Labels: map[string]string{
		"access_granted": "Access granted",
	}}
}

func testJPEGBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func singleFace() []faceengine.Detection {
	return []faceengine.Detection{
		{FaceIndex: 0, Dim: 4, Embedding: []float64{0.1, 0.2, 0.3, 0.4}, DetScore: 0.99},
	}
}

func newTestService(t *testing.T, detector FaceDetector) (*Service, *mock.Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "known_faces")
	st := mock.New()
	svc := NewService(NewRegistry(dir), st, detector, testEvents())
	return svc, st, dir
}

func TestRegisterSuccess(t *testing.T) {
	svc, st, dir := newTestService(t, &fakeDetector{faces: singleFace()})

	err := svc.Register(context.Background(), "alice", testJPEGBase64(t))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "alice_1.jpg")); err != nil {
		t.Errorf("image file missing: %v", err)
	}
	vec, err := npy.Read(filepath.Join(dir, "alice_encoding.npy"))
	if err != nil {
		t.Fatalf("encoding file missing or invalid: %v", err)
	}
	if len(vec) != 4 || vec[0] != 0.1 {
		t.Errorf("unexpected encoding %v", vec)
	}

	users := st.Users()
	if len(users) != 1 || users[0].Name != "alice" {
		t.Errorf("expected one database row for alice, got %+v", users)
	}
	if st.Embedding("alice") == nil {
		t.Error("expected embedding mirrored into the store")
	}
}

func TestRegisterDataURL(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDetector{faces: singleFace()})

	dataURL := "data:image/jpeg;base64," + testJPEGBase64(t)
	if err := svc.Register(context.Background(), "alice", dataURL); err != nil {
		t.Fatalf("Register with data URL failed: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDetector{faces: singleFace()})

	err := svc.Register(context.Background(), "", testJPEGBase64(t))
	if KindOf(err) != KindValidation {
		t.Errorf("missing name: expected validation error, got %v", err)
	}

	err = svc.Register(context.Background(), "alice", "")
	if KindOf(err) != KindValidation {
		t.Errorf("missing image: expected validation error, got %v", err)
	}

	err = svc.Register(context.Background(), "alice", "!!!not-base64!!!")
	if KindOf(err) != KindValidation {
		t.Errorf("bad base64: expected validation error, got %v", err)
	}
}

func TestRegisterConflict(t *testing.T) {
	svc, _, dir := newTestService(t, &fakeDetector{faces: singleFace()})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alice_encoding.npy"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := svc.Register(context.Background(), "alice", testJPEGBase64(t))
	if KindOf(err) != KindConflict {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestRegisterNoFacesRollsBackImage(t *testing.T) {
	svc, st, dir := newTestService(t, &fakeDetector{faces: nil})

	err := svc.Register(context.Background(), "alice", testJPEGBase64(t))
	if KindOf(err) != KindEncodingFailure {
		t.Fatalf("expected encoding failure, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "alice_1.jpg")); !os.IsNotExist(err) {
		t.Error("image file should have been rolled back")
	}
	if _, err := os.Stat(filepath.Join(dir, "alice_encoding.npy")); !os.IsNotExist(err) {
		t.Error("no encoding file should exist")
	}
	if len(st.Users()) != 0 {
		t.Error("no database row should exist after encoding failure")
	}
}

func TestRegisterEngineErrorRollsBackImage(t *testing.T) {
	svc, _, dir := newTestService(t, &fakeDetector{err: errors.New("engine down")})

	err := svc.Register(context.Background(), "alice", testJPEGBase64(t))
	if KindOf(err) != KindEncodingFailure {
		t.Fatalf("expected encoding failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "alice_1.jpg")); !os.IsNotExist(err) {
		t.Error("image file should have been rolled back")
	}
}

func TestRegisterMultipleFacesUsesFirst(t *testing.T) {
	detector := &fakeDetector{faces: []faceengine.Detection{
		{FaceIndex: 0, Embedding: []float64{1, 1}, DetScore: 0.9},
		{FaceIndex: 1, Embedding: []float64{2, 2}, DetScore: 0.8},
	}}
	svc, _, dir := newTestService(t, detector)

	if err := svc.Register(context.Background(), "alice", testJPEGBase64(t)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	vec, err := npy.Read(filepath.Join(dir, "alice_encoding.npy"))
	if err != nil {
		t.Fatalf("encoding missing: %v", err)
	}
	if vec[0] != 1 {
		t.Errorf("expected first face's embedding, got %v", vec)
	}
}

func TestAddUserWithoutCapture(t *testing.T) {
	svc, st, _ := newTestService(t, &fakeDetector{})

	if err := svc.AddUser(context.Background(), "bob"); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if len(st.Users()) != 1 {
		t.Fatal("expected one database row")
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Trained {
		t.Errorf("bob must be listed untrained, got %+v", users)
	}
}

func TestAddUserConflictWithFiles(t *testing.T) {
	svc, _, dir := newTestService(t, &fakeDetector{})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bob_1.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := svc.AddUser(context.Background(), "bob")
	if KindOf(err) != KindConflict {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestDeleteRemovesFilesAndRow(t *testing.T) {
	svc, st, dir := newTestService(t, &fakeDetector{faces: singleFace()})

	if err := svc.Register(context.Background(), "alice", testJPEGBase64(t)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.Delete(context.Background(), "alice"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty faces dir, got %v", entries)
	}
	if len(st.Users()) != 0 {
		t.Error("expected database row removed")
	}
	if st.Embedding("alice") != nil {
		t.Error("expected embedding mirror cleared")
	}
}

func TestDeleteUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDetector{})
	if err := svc.Delete(context.Background(), "ghost"); err != nil {
		t.Errorf("deleting an unknown user must not fail: %v", err)
	}
}

func TestListUsersMergesSources(t *testing.T) {
	svc, st, dir := newTestService(t, &fakeDetector{})

	now := time.Now()
	st.SeedUser(store.User{Name: "db_only", CreatedAt: now, AccessCount: 7})
	st.SeedUser(store.User{Name: "both", CreatedAt: now, AccessCount: 3})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"both_1.jpg", "both_encoding.npy", "disk_only_encoding.npy"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}

	byName := make(map[string]User)
	for _, u := range users {
		if _, dup := byName[u.Name]; dup {
			t.Errorf("user %s appears more than once", u.Name)
		}
		byName[u.Name] = u
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 merged users, got %d: %+v", len(users), users)
	}

	dbOnly := byName["db_only"]
	if dbOnly.Trained || dbOnly.CreatedAt == nil || dbOnly.AccessCount != 7 {
		t.Errorf("db_only wrong: %+v", dbOnly)
	}

	both := byName["both"]
	if !both.Trained || both.CreatedAt == nil || both.AccessCount != 3 {
		t.Errorf("both wrong: %+v", both)
	}

	diskOnly := byName["disk_only"]
	if !diskOnly.Trained || diskOnly.CreatedAt != nil || diskOnly.LastSeen != nil || diskOnly.AccessCount != 0 {
		t.Errorf("disk_only wrong: %+v", diskOnly)
	}
}

func TestListUsersImageWithoutEncoding(t *testing.T) {
	svc, st, dir := newTestService(t, &fakeDetector{})

	st.SeedUser(store.User{Name: "carol", CreatedAt: time.Now()})
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "carol_1.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Trained {
		t.Errorf("capture without encoding must stay untrained: %+v", users)
	}
}

func TestListUsersUnderscoreNames(t *testing.T) {
	svc, _, dir := newTestService(t, &fakeDetector{})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"jan_novak_1.jpg", "jan_novak_encoding.npy"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Name != "jan_novak" || !users[0].Trained {
		t.Errorf("underscore name handled wrong: %+v", users)
	}
}

func TestListUsersSkipsNamelessCapture(t *testing.T) {
	svc, _, dir := newTestService(t, &fakeDetector{})

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// A capture whose name is only the index segment has no username.
	if err := os.WriteFile(filepath.Join(dir, "_1.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alice_1.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Name != "alice" {
		t.Errorf("nameless capture must be skipped, got %+v", users)
	}
}

func TestRecentLogs(t *testing.T) {
	svc, st, _ := newTestService(t, &fakeDetector{})

	person := "alice"
	st.SeedLog(store.AccessLog{Timestamp: time.Now().Add(-time.Minute), EventType: "access_granted", PersonName: &person})
	st.SeedLog(store.AccessLog{Timestamp: time.Now(), EventType: "unknown_face"})

	logs, err := svc.RecentLogs(context.Background())
	if err != nil {
		t.Fatalf("RecentLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].Person != "N/A" {
		t.Errorf("anonymous event must show N/A, got %q", logs[0].Person)
	}
	if logs[1].Event != "access_granted" {
		t.Errorf("expected raw event type, got %q", logs[1].Event)
	}
	if logs[1].Label != "Access granted" {
		t.Errorf("expected mapped display label, got %q", logs[1].Label)
	}
	if logs[1].Person != "alice" {
		t.Errorf("expected person alice, got %q", logs[1].Person)
	}
}

func TestRecentLogsCap(t *testing.T) {
	svc, st, _ := newTestService(t, &fakeDetector{})

	for i := 0; i < 150; i++ {
		st.SeedLog(store.AccessLog{Timestamp: time.Now(), EventType: "door_opened"})
	}

	logs, err := svc.RecentLogs(context.Background())
	if err != nil {
		t.Fatalf("RecentLogs failed: %v", err)
	}
	if len(logs) != 100 {
		t.Errorf("expected exactly 100 entries, got %d", len(logs))
	}
}
