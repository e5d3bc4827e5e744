package main

import (
	"context"
	"errors"
	"io"

	"github.com/rusq/dlog"

	"github.com/rusq/wipemychannel/internal/config"
	"github.com/rusq/wipemychannel/internal/discord/authflow"
	"github.com/rusq/wipemychannel/internal/session"
)

// errNoToken is returned if the input ended before the token was entered.
var errNoToken = errors.New("no token entered")

type tokenStorage interface {
	Load() (string, error)
	Save(token string) error
}

// resolveToken returns the token from the first available source: command
// line or environment, configuration file, stored token.  If none are
// available, the token is requested from the user and saved to the storage.
func resolveToken(ctx context.Context, token string, cfg config.Config, st tokenStorage, tp authflow.TokenProvider) (string, error) {
	if token != "" {
		return token, nil
	}
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	tok, err := st.Load()
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		dlog.Debugf("warning: error loading the token, requesting manual input: %s", err)
	}
	tok, err = tp.GetToken(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", errNoToken
		}
		return "", err
	}
	if err := st.Save(tok); err != nil {
		// not a fatal error
		dlog.Debugf("failed to save the token: %s", err)
	}
	return tok, nil
}
