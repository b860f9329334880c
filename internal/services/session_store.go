package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// SessionRecord links a service (liturgy) to the channel its presenter runs
// on, so outputs opened later can find it.
type SessionRecord struct {
	ServiceID string    `json:"serviceId"`
	Channel   string    `json:"channel"`
	LinkedAt  time.Time `json:"linkedAt"`
}

// SessionsFile is the on-disk layout of sessions.json.
type SessionsFile struct {
	Sessions map[string]*SessionRecord `json:"sessions"`
}

// SessionStore manages session links in a JSON file. The file is guarded by
// a lock file so several processes can share it.
type SessionStore struct {
	mu       sync.RWMutex
	filePath string
	lock     *flock.Flock
	log      *slog.Logger
	data     *SessionsFile
}

// NewSessionStore creates a session store in dataPath and loads it
func NewSessionStore(dataPath string, logger *slog.Logger) (*SessionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	filePath := filepath.Join(dataPath, "sessions.json")

	store := &SessionStore{
		filePath: filePath,
		lock:     flock.New(filePath + ".lock"),
		log:      logger,
		data:     &SessionsFile{Sessions: make(map[string]*SessionRecord)},
	}

	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return store, nil
}

// Load reads sessions.json, keeping an empty registry if the file is absent
// or unreadable.
func (s *SessionStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer s.lock.Unlock()
	return s.load()
}

// load must be called with both locks held
func (s *SessionStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sessions file: %w", err)
	}

	var file SessionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.log.Warn("failed to parse sessions file, using empty registry", "path", s.filePath, "error", err)
		return nil
	}
	if file.Sessions == nil {
		file.Sessions = make(map[string]*SessionRecord)
	}
	s.data = &file
	return nil
}

// save atomically writes sessions.json (temp file, sync, rename)
// Must be called with both locks held
func (s *SessionStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	file.Close()

	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// update reloads the file under the lock, applies fn and saves.
func (s *SessionStore) update(fn func(*SessionsFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer s.lock.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	if err := fn(s.data); err != nil {
		return err
	}
	return s.save()
}

// LinkChannel links a service to a channel, replacing any earlier link
func (s *SessionStore) LinkChannel(serviceID, channel string) (SessionRecord, error) {
	serviceID = strings.TrimSpace(serviceID)
	channel = strings.TrimSpace(channel)
	if serviceID == "" {
		return SessionRecord{}, fmt.Errorf("serviceId is required")
	}
	if channel == "" {
		return SessionRecord{}, fmt.Errorf("channel is required")
	}

	record := SessionRecord{ServiceID: serviceID, Channel: channel, LinkedAt: time.Now().UTC()}
	err := s.update(func(f *SessionsFile) error {
		f.Sessions[serviceID] = &record
		return nil
	})
	if err != nil {
		return SessionRecord{}, fmt.Errorf("failed to save after linking channel: %w", err)
	}

	s.log.Info("linked service to channel", "service_id", serviceID, "channel", channel)
	return record, nil
}

// FindChannel returns the channel linked to a service
func (s *SessionStore) FindChannel(serviceID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.data.Sessions[serviceID]
	if !exists || record.Channel == "" {
		return "", false
	}
	return record.Channel, true
}

// List returns every link ordered by service id
func (s *SessionStore) List() []SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionRecord, 0, len(s.data.Sessions))
	for _, r := range s.data.Sessions {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceID < out[j].ServiceID })
	return out
}

// Unlink removes a service's link
func (s *SessionStore) Unlink(serviceID string) error {
	err := s.update(func(f *SessionsFile) error {
		if _, ok := f.Sessions[serviceID]; !ok {
			return fmt.Errorf("%w: session %s", ErrNotFound, serviceID)
		}
		delete(f.Sessions, serviceID)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("unlinked service", "service_id", serviceID)
	return nil
}
