package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"tidbyt.dev/nearby/model"
)

// Keeps settings in a JSON file, e.g. settings.json.
type FileStorage struct {
	Path string

	mutex sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// Keys missing from the file get their default values.
func (f *FileStorage) LoadSettings() (*model.Settings, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	buf, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	settings := model.DefaultSettings()
	err = json.Unmarshal(buf, settings)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling: %w", err)
	}

	return withDefaults(settings), nil
}

func (f *FileStorage) WriteSettings(settings *model.Settings) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	buf, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling: %w", err)
	}

	err = os.WriteFile(f.Path, buf, 0644)
	if err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	return nil
}

func (f *FileStorage) Close() error {
	return nil
}
