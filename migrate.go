package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rusq/wipemychannel/internal/session"
)

const plainSignature = `{"token":`

// migrateToken encrypts the token file that was saved in plain text.
// tokfile is the path to the token file.  It returns true if the file was
// migrated, false if it was already encrypted or does not exist.
func migrateToken(tokfile string) (bool, error) {
	f, err := os.Open(tokfile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if fi, err := f.Stat(); err != nil {
		return false, err
	} else if fi.Size() == 0 {
		return false, nil
	}
	b := make([]byte, len(plainSignature))
	if _, err := io.ReadFull(f, b); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return false, errors.New("invalid token file")
		}
		return false, fmt.Errorf("failed to read token file: %w", err)
	}
	if !bytes.Equal(b, []byte(plainSignature)) {
		// already encrypted or invalid
		return false, nil
	}
	// needs to be migrated
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close error: %w", err)
	}
	data, err := os.ReadFile(tokfile)
	if err != nil {
		return false, err
	}
	var plain struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &plain); err != nil {
		return false, fmt.Errorf("failed to load token: %w", err)
	}

	// overwrite with the encrypted version
	st := session.FileStorage{Path: tokfile}
	if err := st.Save(plain.Token); err != nil {
		return false, fmt.Errorf("failed to save token: %w", err)
	}
	return true, nil
}
