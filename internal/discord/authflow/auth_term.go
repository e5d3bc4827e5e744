// Package authflow implements the token acquisition from the terminal.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ErrEmptyToken is returned if the user entered nothing.
var ErrEmptyToken = errors.New("empty token")

type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

var (
	italic    = color.New(color.Italic)
	param     = color.New(color.Italic, color.FgBlue, color.BgHiWhite)
	warn      = color.New(color.FgHiRed)
	underline = color.New(color.Underline)

	line = strings.Repeat("-=", 40)
)

// TermAuth requests the token in the terminal.
type TermAuth struct {
	out io.Writer
	// readpass reads the secret without echoing it.
	readpass func(ctx context.Context) (string, error)
}

func NewTermAuth() TermAuth {
	return TermAuth{out: os.Stdout, readpass: readpass}
}

func (a TermAuth) GetToken(ctx context.Context) (string, error) {
	a.instructions()
	fmt.Fprintf(a.out, "Enter %s (won't be shown): ", param.Sprint(" token "))
	tok, err := a.readpass(ctx)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrEmptyToken
	}
	return tok, nil
}

func (a TermAuth) instructions() {
	fmt.Fprintln(a.out, line)
	fmt.Fprintf(a.out, "To get your Discord token, follow the instructions:\n\n")
	fmt.Fprintf(a.out, "\t1.  Open Discord in the browser and login:  %s\n", italic.Sprint("https://discord.com/app"))
	fmt.Fprintf(a.out, "\t2.  Open %s (F12 or Ctrl+Shift+I), switch to the %s tab;\n",
		underline.Sprint("Developer Tools"), underline.Sprint("Network"))
	fmt.Fprintf(a.out, "\t3.  Click any channel, select any request to %s and copy\n"+
		"\t    the value of the %s request header.\n\n",
		italic.Sprint("/api/v9"), underline.Sprint("Authorization"))
	fmt.Fprintf(a.out, "This application will encrypt and save the token on your device.  You can\n"+
		"delete it any time starting with -reset flag.\n\n")
	warn.Fprintf(a.out, "VERY IMPORTANT: This is the key to your account, keep it secret, never share\n"+
		"it with anyone, never publish it online.\n")
	fmt.Fprintln(a.out, line)
	fmt.Fprintln(a.out)
}

func readpass(_ context.Context) (string, error) {
	stdin := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(stdin)
	if err != nil {
		return "", err
	}
	defer term.Restore(stdin, oldState)

	bytePwd, err := term.ReadPassword(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePwd)), nil
}
