package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rusq/dlog"
	"github.com/rusq/osenv/v2"
	"github.com/rusq/tracer"
	"github.com/schollz/progressbar/v3"

	"github.com/rusq/wipemychannel/internal/config"
	"github.com/rusq/wipemychannel/internal/discord"
	"github.com/rusq/wipemychannel/internal/discord/authflow"
	"github.com/rusq/wipemychannel/internal/prompt"
	"github.com/rusq/wipemychannel/internal/session"
	"github.com/rusq/wipemychannel/internal/tui"
	"github.com/rusq/wipemychannel/internal/wipe"
)

const (
	cacheDirName  = "wipemychannel"
	tokenFilename = "discord.dat"
)

const AppName = "Wipe My Channel for Discord"

const (
	defMinDelay = 1000 // ms
	defMaxDelay = 3000 // ms
)

var (
	version   = "dev"
	builtOn   = "just now"
	gitCommit = ""
	gitRef    = ""

	versionSig = fmt.Sprintf("%s %s (built %s)", AppName, version, builtOn)
)

var _ = godotenv.Load() // load environment variables from .env, if present

type Params struct {
	CacheDirName string

	Token      string
	ConfigFile string
	APIURL     string

	Reset bool
	TUI   bool

	Batch channelIDs

	// delays in milliseconds, negative values mean "ask".
	MinDelay int
	MaxDelay int

	Version bool
	Verbose bool
	Trace   string

	cacheDir string
}

func main() {
	p, err := parseCmdLine()
	if err != nil {
		dlog.Fatal(err)
	}
	if p.Version {
		ver(os.Stdout)
		return
	}

	dlog.SetDebug(p.Verbose)

	if err := p.initCacheDir(cacheDirName); err != nil {
		dlog.Fatalf("failed to create cache directory: %s", err)
	}

	if err := run(context.Background(), p); err != nil {
		if errors.Is(err, wipe.ErrCancelled) {
			return
		}
		dlog.Fatal(err)
	}
}

type channelIDs []snowflake.ID

func (c *channelIDs) Set(val string) error {
	ss := strings.Split(val, ",")
	var ids = make([]snowflake.ID, 0, len(ss))

	for _, sID := range ss {
		id, err := parseChannelID(sID)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	*c = ids
	return nil
}

func (c *channelIDs) String() string {
	return fmt.Sprint([]snowflake.ID(*c))
}

func parseChannelID(s string) (snowflake.ID, error) {
	id, err := snowflake.Parse(strings.TrimSpace(s))
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid channel ID: %q", s)
	}
	return id, nil
}

func parseCmdLine() (Params, error) {
	var p = Params{CacheDirName: cacheDirName}
	{
		flag.StringVar(&p.Token, "token", osenv.Secret("DISCORD_TOKEN", ""), "Discord `token`")
		flag.StringVar(&p.ConfigFile, "config", osenv.Value("WIPE_CONFIG", ""), "configuration `file` (json or yaml), if not set, "+config.LegacyPath+" is used if present")
		flag.StringVar(&p.APIURL, "api", osenv.Value("DISCORD_API", ""), "Discord API `url` (optional)")
		flag.BoolVar(&p.Reset, "reset", false, "reset authentication")
		flag.BoolVar(&p.TUI, "tui", false, "run the full screen interface")
		flag.Var(&p.Batch, "wipe", "batch mode, specify comma separated channel IDs on the command line")
		flag.IntVar(&p.MinDelay, "min", -1, "minimum delay between deletions, `ms` (asked, if not set)")
		flag.IntVar(&p.MaxDelay, "max", -1, "maximum delay between deletions, `ms` (asked, if not set)")

		flag.BoolVar(&p.Version, "v", false, "print version and exit")
		flag.BoolVar(&p.Verbose, "verbose", osenv.Value("DEBUG", "") != "", "verbose output")
		flag.StringVar(&p.Trace, "trace", osenv.Value("TRACE_FILE", ""), "trace `filename`")

		flag.Parse()
	}
	if (p.MinDelay < 0) != (p.MaxDelay < 0) {
		return p, errors.New("both -min and -max must be specified")
	}
	return p, nil
}

func (p *Params) initCacheDir(appName string) error {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return err
	}
	cacheDir = filepath.Join(cacheDir, appName)
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return err
	}
	p.cacheDir = cacheDir
	return nil
}

func run(ctx context.Context, p Params) error {
	if p.Trace != "" {
		tr := tracer.New(p.Trace)
		if err := tr.Start(); err != nil {
			return err
		}
		defer tr.End()
	}

	header(os.Stdout)

	tokStorage := &session.FileStorage{Path: filepath.Join(p.cacheDir, tokenFilename)}
	if p.Reset {
		if err := tokStorage.Remove(); err != nil {
			return err
		}
	}
	if migrated, err := migrateToken(tokStorage.Path); err != nil {
		dlog.Debugf("token migration: %s", err)
	} else if migrated {
		dlog.Debug("token file encrypted")
	}

	cfg, err := config.LoadOrLegacy(p.ConfigFile)
	if err != nil {
		return err
	}
	token, err := resolveToken(ctx, p.Token, cfg, tokStorage, authflow.NewTermAuth())
	if err != nil {
		return err
	}

	apiURL := p.APIURL
	if apiURL == "" {
		apiURL = cfg.APIURL
	}
	cl, err := discord.New(token,
		discord.WithBaseURL(apiURL),
		discord.WithDebug(p.Verbose),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done, finished := fakeProgress("Logging in . . .", 0)
	me, err := cl.Me(ctx)
	close(done)
	<-finished
	if err != nil {
		var apiErr *discord.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("error fetching user data: %w (start with -reset to enter a new token)", err)
		}
		return fmt.Errorf("error fetching user data: %w", err)
	}
	dlog.Printf("Logged in as %s", me.DisplayName())

	term := prompt.Stdio()
	if p.TUI {
		return tui.New(ctx, cl, me, defaultDelays(p, cfg)).Run(ctx)
	}

	var channels = []snowflake.ID(p.Batch)
	if len(channels) == 0 {
		channelID, err := prompt.Parsed(ctx, term, "Enter the channel ID to delete all self-messages from: ", parseChannelID)
		if err != nil {
			return err
		}
		channels = append(channels, channelID)
	}

	delays, err := askDelays(ctx, term, p, cfg)
	if err != nil {
		return err
	}
	w, err := wipe.New(cl, me, delays, term,
		wipe.WithLogger(dlog.New(os.Stdout, "", dlog.Flags(), p.Verbose)),
		wipe.WithProgressBar(true),
	)
	if err != nil {
		return err
	}
	if len(channels) == 1 {
		_, err = w.Wipe(ctx, channels[0])
		return err
	}
	return w.Batch(ctx, channels)
}

// defaultDelays returns the delays from the command line or configuration
// file, falling back to defaults.
func defaultDelays(p Params, cfg config.Config) wipe.Delays {
	var minMs, maxMs = defMinDelay, defMaxDelay
	if p.MinDelay >= 0 {
		minMs, maxMs = p.MinDelay, p.MaxDelay
	} else if cmin, cmax, ok := cfg.Delays(); ok {
		minMs, maxMs = cmin, cmax
	}
	d, err := wipe.DelaysMs(minMs, maxMs)
	if err != nil {
		dlog.Printf("%s, using defaults", err)
		d, _ = wipe.DelaysMs(defMinDelay, defMaxDelay)
	}
	return d
}

// askDelays returns the delays from the command line or configuration file,
// if set, otherwise asks the user.
func askDelays(ctx context.Context, term *prompt.Terminal, p Params, cfg config.Config) (wipe.Delays, error) {
	if p.MinDelay >= 0 {
		return wipe.DelaysMs(p.MinDelay, p.MaxDelay)
	}
	if minMs, maxMs, ok := cfg.Delays(); ok {
		return wipe.DelaysMs(minMs, maxMs)
	}
	for {
		minMs, err := term.Int(ctx, "Enter minimum delay (ms): ")
		if err != nil {
			return wipe.Delays{}, err
		}
		maxMs, err := term.Int(ctx, "Enter maximum delay (ms): ")
		if err != nil {
			return wipe.Delays{}, err
		}
		d, err := wipe.DelaysMs(minMs, maxMs)
		if err == nil {
			return d, nil
		}
		fmt.Printf("*** %s, try again\n", err)
	}
}

// fakeProgress starts a fake spinner and returns a channel that must be closed
// once the operation completes. interval is interval between iterations. If not
// set, will default to 50ms.
func fakeProgress(title string, interval time.Duration) (chan<- struct{}, <-chan struct{}) {
	if interval == 0 {
		interval = 50 * time.Millisecond
	}
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		bar := progressbar.NewOptions(
			-1,
			progressbar.OptionSetDescription(title),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSpinnerType(9),
		)
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-done:
				bar.Finish()
				fmt.Println()
				close(finished)
				return
			case <-t.C:
				bar.Add(1)
			}
		}
	}()
	return done, finished
}

func header(w io.Writer) {
	fmt.Fprintf(w,
		"%s\n%s\n%s\n", versionSig, strings.Repeat("-", len(versionSig)),
		color.New(color.Italic).Sprint("Deletes your messages, one at a time."),
	)
	fmt.Fprintln(w)
}

func ver(w io.Writer) {
	header(w)
	if gitCommit != "" {
		fmt.Fprintf(w, "commit: %s ref: %s\n", gitCommit, gitRef)
	}
}
