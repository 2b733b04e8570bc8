package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/client/api"
	"github.com/dmitrijs2005/clipshare/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// apiClient is the part of api.Client the CLI uses.
type apiClient interface {
	Register(ctx context.Context, username, email string, password []byte) (*api.Session, error)
	Login(ctx context.Context, username string, password []byte) (*api.Session, error)
	Me(ctx context.Context) (*api.User, error)
	Upload(ctx context.Context, req api.UploadRequest) (*api.Video, error)
	ListVideos(ctx context.Context, limit, offset int) ([]api.Video, error)
	ListUserVideos(ctx context.Context, userID string, limit, offset int) ([]api.Video, error)
	GetVideo(ctx context.Context, id string) (*api.Video, error)
	Ping(ctx context.Context) error
	ClearToken()
}

type App struct {
	config *config.Config
	api    apiClient
	user   *api.User
	reader *bufio.Reader
	out    io.Writer

	modeMu sync.Mutex
	mode   Mode
}

func NewApp(c *config.Config) (*App, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", c.ServerURL)
	}

	apiClient := api.New(c.ServerURL, c.RequestTimeout, c.UploadTimeout)

	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	s := ""
	if a.user != nil {
		s = a.user.UserName + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s) ", s)
	}
	return s
}

// Run starts the connectivity watcher and the REPL and returns when the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Println("Welcome to ClipShare CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

// StartOnlineStatusWatcher pings the server every interval and updates the
// mode until ctx is cancelled.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
