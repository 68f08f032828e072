package registry

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/kozaktomas/door-dashboard/internal/constants"
	"github.com/kozaktomas/door-dashboard/internal/faceengine"
	"github.com/kozaktomas/door-dashboard/internal/imaging"
	"github.com/kozaktomas/door-dashboard/internal/npy"
	"github.com/kozaktomas/door-dashboard/internal/store"
)

// FaceDetector is the slice of the face engine client the service needs.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]faceengine.Detection, error)
}

// Service orchestrates registration, deletion, listing and log retrieval
// across the faces directory, the database and the face engine.
type Service struct {
	reg    *Registry
	store  store.Store
	engine FaceDetector
	events *config.EventsConfig
}

// NewService creates a registry service.
func NewService(reg *Registry, st store.Store, engine FaceDetector, events *config.EventsConfig) *Service {
	return &Service{
		reg:    reg,
		store:  st,
		engine: engine,
		events: events,
	}
}

// Registry exposes the underlying filesystem registry.
func (s *Service) Registry() *Registry {
	return s.reg
}

// User is the merged dashboard view of a user. CreatedAt and LastSeen are
// nil for users known only from files on disk.
type User struct {
	Name        string     `json:"name"`
	Trained     bool       `json:"trained"`
	CreatedAt   *time.Time `json:"created_at"`
	LastSeen    *time.Time `json:"last_seen"`
	AccessCount int        `json:"access_count"`
}

// LogEntry is the display shape of an access log row. Event carries the
// raw event type, which is what JSON consumers of the device expect;
// Label is the human-readable form for HTML pages and CLI tables.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Label     string    `json:"-"`
	Person    string    `json:"person"`
}

// Register stores a capture for a new user, generates its encoding and
// records the user in the database. The image file write is rolled back
// when encoding fails.
func (s *Service) Register(ctx context.Context, name, imageB64 string) error {
	if name == "" {
		return newError(KindValidation, "User name is required")
	}
	if imageB64 == "" {
		return newError(KindValidation, "Face image is required")
	}

	exists, err := s.reg.HasFiles(name)
	if err != nil {
		return wrapError(KindIOFailure, "Failed to check existing users", err)
	}
	if exists {
		return newError(KindConflict,
			fmt.Sprintf("User %s already exists. Please choose a different name or delete the existing user.", name))
	}

	raw, err := imaging.DecodeBase64Image(imageB64)
	if err != nil {
		return wrapError(KindValidation, "Failed to decode face image", err)
	}
	jpg, err := imaging.NormalizeJPEG(raw)
	if err != nil {
		return wrapError(KindValidation, "Failed to process face image", err)
	}

	if err := s.reg.SaveImage(name, jpg); err != nil {
		return wrapError(KindIOFailure, "Failed to save face image", err)
	}

	if err := s.Encode(ctx, name); err != nil {
		// Compensating rollback: a capture without an encoding must not
		// linger, it would block re-registration of the same name.
		s.reg.RemoveImage(name)
		if KindOf(err) == KindEncodingFailure {
			return newError(KindEncodingFailure,
				"Failed to generate face encoding. Please ensure a clear face image with good lighting.")
		}
		return err
	}

	if _, err := s.store.AddUser(ctx, name); err != nil {
		return wrapError(KindIOFailure, "Failed to record user in database", err)
	}
	return nil
}

// Encode loads a user's capture, runs face detection and writes the
// resulting embedding to <name>_encoding.npy and the database mirror.
// Called during registration and by the retrain command; never triggered
// automatically when an image changes.
func (s *Service) Encode(ctx context.Context, name string) error {
	data, err := os.ReadFile(s.reg.ImagePath(name))
	if err != nil {
		return wrapError(KindIOFailure, fmt.Sprintf("Image file not found for user %s", name), err)
	}

	jpg, err := imaging.NormalizeJPEG(data)
	if err != nil {
		return wrapError(KindEncodingFailure, fmt.Sprintf("Unreadable image for user %s", name), err)
	}

	faces, err := s.engine.DetectFaces(ctx, jpg)
	if err != nil {
		return wrapError(KindEncodingFailure, fmt.Sprintf("Face detection failed for user %s", name), err)
	}

	if len(faces) == 0 {
		log.Printf("Warning: no faces found in %s_1.jpg", name)
		return newError(KindEncodingFailure, fmt.Sprintf("No faces found for user %s", name))
	}
	if len(faces) > 1 {
		log.Printf("Warning: multiple faces found in %s_1.jpg, using the first one", name)
	}

	encoding := faces[0].Embedding
	if err := npy.Write(s.reg.EncodingPath(name), encoding); err != nil {
		return wrapError(KindIOFailure, fmt.Sprintf("Failed to save encoding for user %s", name), err)
	}

	// The database mirror is best-effort; the .npy file is the source of
	// truth for the door controller.
	if err := s.store.SaveEmbedding(ctx, name, encoding); err != nil {
		log.Printf("Warning: failed to mirror embedding for %s: %v", name, err)
	}
	return nil
}

// AddUser registers a name without a face capture. The user stays
// untrained until a capture is registered later.
func (s *Service) AddUser(ctx context.Context, name string) error {
	if name == "" {
		return newError(KindValidation, "User name is required")
	}

	exists, err := s.reg.HasFiles(name)
	if err != nil {
		return wrapError(KindIOFailure, "Failed to check existing users", err)
	}
	if exists {
		return newError(KindConflict, fmt.Sprintf("User %s already exists", name))
	}

	if _, err := s.store.AddUser(ctx, name); err != nil {
		return wrapError(KindIOFailure, "Failed to add user", err)
	}
	return nil
}

// Delete removes a user's files and database row. Deleting an unknown
// user is not an error.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.reg.RemoveFiles(name); err != nil {
		return wrapError(KindIOFailure, fmt.Sprintf("Failed to delete files for user %s", name), err)
	}
	if err := s.store.DeleteUser(ctx, name); err != nil {
		return wrapError(KindIOFailure, fmt.Sprintf("Failed to delete user %s", name), err)
	}
	if err := s.store.DeleteEmbedding(ctx, name); err != nil {
		log.Printf("Warning: failed to clear embedding mirror for %s: %v", name, err)
	}
	return nil
}

// ListUsers merges database rows with files on disk into one de-duplicated
// view. Database rows come first (authoritative for timestamps and access
// counts), then users discovered from captures or stray encoding files.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	dbUsers, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, wrapError(KindIOFailure, "Failed to load users from database", err)
	}

	byName := make(map[string]*User)
	var order []string

	add := func(u User) *User {
		if existing, ok := byName[u.Name]; ok {
			return existing
		}
		byName[u.Name] = &u
		order = append(order, u.Name)
		return byName[u.Name]
	}

	for _, db := range dbUsers {
		created := db.CreatedAt
		add(User{
			Name:        db.Name,
			Trained:     false,
			CreatedAt:   &created,
			LastSeen:    db.LastSeen,
			AccessCount: db.AccessCount,
		})
	}

	entries, err := os.ReadDir(s.reg.Dir())
	if err != nil && !os.IsNotExist(err) {
		return nil, wrapError(KindIOFailure, "Failed to read faces directory", err)
	}

	encodings := make(map[string]bool)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_encoding.npy") {
			encodings[e.Name()] = true
		}
	}

	for _, e := range entries {
		filename := e.Name()
		switch {
		case strings.HasSuffix(filename, ".jpg") && strings.Contains(filename, "_") && !strings.HasPrefix(filename, "."):
			username := UserFromImageFile(filename)
			if username == "" {
				continue
			}
			trained := encodings[username+"_encoding.npy"]
			u := add(User{Name: username, Trained: trained})
			u.Trained = trained
		case strings.HasSuffix(filename, "_encoding.npy"):
			username := UserFromEncodingFile(filename)
			u := add(User{Name: username, Trained: true})
			u.Trained = true
		}
	}

	users := make([]User, 0, len(order))
	for _, name := range order {
		users = append(users, *byName[name])
	}
	return users, nil
}

// RecentLogs returns the latest access log entries in display form.
// Anonymous events get the "N/A" person placeholder.
func (s *Service) RecentLogs(ctx context.Context) ([]LogEntry, error) {
	rows, err := s.store.RecentAccessLogs(ctx, constants.RecentLogLimit)
	if err != nil {
		return nil, wrapError(KindIOFailure, "Failed to load access logs", err)
	}

	logs := make([]LogEntry, 0, len(rows))
	for _, row := range rows {
		person := "N/A"
		if row.PersonName != nil {
			person = *row.PersonName
		}
		logs = append(logs, LogEntry{
			Timestamp: row.Timestamp,
			Event:     row.EventType,
			Label:     s.events.Label(row.EventType),
			Person:    person,
		})
	}
	return logs, nil
}
