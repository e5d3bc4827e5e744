// Package prompt implements line oriented interactive questions in the
// terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	question = color.New(color.Bold)
	errmsg   = color.New(color.FgHiRed)
)

// Terminal asks questions reading answers from in.  In case of a
// non-interactive input, EOF is returned.  All questions return the context
// error as soon as the context is cancelled, even if the input is blocked.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan string
	next  chan struct{}
	err   error // set by reader before lines is closed
}

// New returns the Terminal reading from r and writing questions to w.
func New(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{
		in:    bufio.NewReader(r),
		out:   w,
		lines: make(chan string),
		next:  make(chan struct{}, 1),
	}
}

// Stdio returns the Terminal attached to stdin and stdout.
func Stdio() *Terminal {
	return New(os.Stdin, os.Stdout)
}

// reader reads one line per request on the next channel.  It is started on
// the first read and lives until the input is exhausted.
func (t *Terminal) reader() {
	defer close(t.lines)
	for range t.next {
		s, err := t.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && s != "") {
			t.err = err
			return
		}
		t.lines <- strings.TrimSpace(s)
	}
}

func (t *Terminal) readln(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.once.Do(func() { go t.reader() })
	select {
	case t.next <- struct{}{}:
	default:
		// the line requested earlier is still pending.
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case s, ok := <-t.lines:
		if !ok {
			return "", t.err
		}
		return s, nil
	}
}

// String asks a free text question, empty answers are not accepted.
func (t *Terminal) String(ctx context.Context, label string) (string, error) {
	for {
		fmt.Fprint(t.out, question.Sprint(label))
		s, err := t.readln(ctx)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
	}
}

// Parsed asks the question until parse function succeeds.
func Parsed[T any](ctx context.Context, t *Terminal, label string, parse func(string) (T, error)) (T, error) {
	for {
		s, err := t.String(ctx, label)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(s)
		if err == nil {
			return v, nil
		}
		errmsg.Fprintf(t.out, "*** Input error: %s\n", err)
	}
}

// Int asks for an integer value.
func (t *Terminal) Int(ctx context.Context, label string) (int, error) {
	return Parsed(ctx, t, label, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	})
}

// YesNo asks a yes or no question.  Empty answer means no.
func (t *Terminal) YesNo(ctx context.Context, q string) (bool, error) {
	for {
		fmt.Fprintf(t.out, "%s %s: ", question.Sprint(q), "[y/N]")
		s, err := t.readln(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		switch strings.ToLower(s) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "*** Please answer y or n")
	}
}

// Confirm implements the confirmation gate for the deletion.
func (t *Terminal) Confirm(ctx context.Context, q string) (bool, error) {
	return t.YesNo(ctx, q)
}
