package storage

import (
	"sync"

	"tidbyt.dev/nearby/model"
)

// In memory implementation of Storage

type MemoryStorage struct {
	mutex    sync.Mutex
	settings *model.Settings
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) LoadSettings() (*model.Settings, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.settings == nil {
		return model.DefaultSettings(), nil
	}
	return s.settings.Clone(), nil
}

func (s *MemoryStorage) WriteSettings(settings *model.Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.settings = settings.Clone()
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
