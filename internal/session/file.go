// Package session stores the Discord token on disk, encrypted.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rusq/encio"
)

// ErrNotFound is returned by Load if there's no stored token.
var ErrNotFound = errors.New("token not found")

// FileStorage keeps the token in the encrypted file stored in Path.
type FileStorage struct {
	Path string
	mu   sync.Mutex
}

// stored is the structure of data in the storage.
type stored struct {
	Token string `json:"token,omitempty"`
}

// Load loads the token from the file.
func (f *FileStorage) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hFile, err := encio.Open(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("open: %w", err)
	}
	defer hFile.Close()

	return read(hFile)
}

// Save saves the token to the file.
func (f *FileStorage) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	hFile, err := encio.Create(f.Path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer hFile.Close()

	return write(hFile, token)
}

// Remove deletes the file, if it exists.
func (f *FileStorage) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func write(w io.Writer, token string) error {
	return json.NewEncoder(w).Encode(stored{Token: token})
}

func read(r io.Reader) (string, error) {
	var s stored
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	if s.Token = strings.TrimSpace(s.Token); s.Token == "" {
		return "", ErrNotFound
	}
	return s.Token, nil
}
