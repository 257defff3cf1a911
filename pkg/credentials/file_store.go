package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StoreVersion is the current version of the store file format.
const StoreVersion = 1

// storeFile is the on-disk representation.
type storeFile struct {
	// Version is the store file format version.
	Version int `json:"version"`

	// SavedAt is when the store was last written.
	SavedAt time.Time `json:"saved_at"`

	// Credentials holds the saved networks, default first.
	Credentials []Credential `json:"credentials,omitempty"`
}

// FileStore persists credentials to a JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a credential store backed by the given path.
// The file is created on first Add.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// List returns all stored credentials, default first.
func (s *FileStore) List() ([]Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Credential, len(sf.Credentials))
	copy(out, sf.Credentials)
	return out, nil
}

// Add stores a credential at the front, replacing any existing entry
// with the same SSID. At capacity, the oldest entry is evicted.
func (s *FileStore) Add(ssid, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return err
	}

	kept := sf.Credentials[:0]
	for _, c := range sf.Credentials {
		if c.SSID != ssid {
			kept = append(kept, c)
		}
	}
	sf.Credentials = append([]Credential{{SSID: ssid, Password: password}}, kept...)
	if len(sf.Credentials) > MaxStored {
		sf.Credentials = sf.Credentials[:MaxStored]
	}

	return s.save(sf)
}

// Remove deletes the credential at the given index.
func (s *FileStore) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(sf.Credentials) {
		return ErrIndexOutOfRange
	}
	sf.Credentials = append(sf.Credentials[:index], sf.Credentials[index+1:]...)
	return s.save(sf)
}

// SetDefault moves the credential at the given index to the front.
func (s *FileStore) SetDefault(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(sf.Credentials) {
		return ErrIndexOutOfRange
	}
	if index == 0 {
		return nil
	}
	def := sf.Credentials[index]
	rest := append(sf.Credentials[:index], sf.Credentials[index+1:]...)
	sf.Credentials = append([]Credential{def}, rest...)
	return s.save(sf)
}

// load reads the store file. A missing file yields an empty store.
// Callers hold s.mu.
func (s *FileStore) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &storeFile{Version: StoreVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	sf := &storeFile{}
	if err := json.Unmarshal(data, sf); err != nil {
		return nil, err
	}
	return sf, nil
}

// save writes the store file. Callers hold s.mu.
func (s *FileStore) save(sf *storeFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	sf.Version = StoreVersion
	sf.SavedAt = time.Now()

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Compile-time interface satisfaction check.
var _ Store = (*FileStore)(nil)
