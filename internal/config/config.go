package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var eventsYAML []byte

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Faces    FacesConfig
	Events   EventsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL          string // postgres:// URL or MySQL DSN (e.g. door:door@tcp(db:3306)/door)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type FacesConfig struct {
	Dir       string // directory holding <name>_1.jpg and <name>_encoding.npy files
	EngineURL string // base URL of the face detection/embedding service
	Dim       int    // embedding dimension produced by the engine (default 128)
}

// EventsConfig maps raw access-log event types to display labels.
type EventsConfig struct {
	Labels map[string]string `yaml:"labels"`
}

// Label returns the display label for an event type, falling back to the
// raw value when no mapping exists.
func (c *EventsConfig) Label(eventType string) string {
	if label, ok := c.Labels[eventType]; ok {
		return label
	}
	return eventType
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var events EventsConfig
	if err := yaml.Unmarshal(eventsYAML, &events); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded events.yaml: " + err.Error())
	}

	return &Config{
		Server: ServerConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Faces: FacesConfig{
			Dir:       envString("KNOWN_FACES_DIR", "known_faces"),
			EngineURL: os.Getenv("FACE_ENGINE_URL"),
			Dim:       envInt("FACE_EMBEDDING_DIM", 128),
		},
		Events: events,
	}
}
