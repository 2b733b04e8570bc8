package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/clipshare/internal/client/api"
)

type fakeAPI struct {
	// Register / Login
	regUser, regEmail string
	loginUser         string
	pass              []byte
	session           *api.Session
	authErr           error

	me    *api.User
	meErr error

	upload    api.UploadRequest
	uploaded  []byte
	video     *api.Video
	uploadErr error

	list     []api.Video
	listErr  error
	listArgs []any

	getID  string
	getErr error

	pingErr error

	tokenCleared bool
}

func (f *fakeAPI) Register(_ context.Context, username, email string, password []byte) (*api.Session, error) {
	f.regUser, f.regEmail, f.pass = username, email, append([]byte(nil), password...)
	return f.session, f.authErr
}
func (f *fakeAPI) Login(_ context.Context, username string, password []byte) (*api.Session, error) {
	f.loginUser, f.pass = username, append([]byte(nil), password...)
	return f.session, f.authErr
}
func (f *fakeAPI) Me(context.Context) (*api.User, error) { return f.me, f.meErr }
func (f *fakeAPI) Upload(_ context.Context, req api.UploadRequest) (*api.Video, error) {
	f.upload = req
	f.uploaded, _ = io.ReadAll(req.Body)
	return f.video, f.uploadErr
}
func (f *fakeAPI) ListVideos(_ context.Context, limit, offset int) ([]api.Video, error) {
	f.listArgs = []any{limit, offset}
	return f.list, f.listErr
}
func (f *fakeAPI) ListUserVideos(_ context.Context, userID string, limit, offset int) ([]api.Video, error) {
	f.listArgs = []any{userID, limit, offset}
	return f.list, f.listErr
}
func (f *fakeAPI) GetVideo(_ context.Context, id string) (*api.Video, error) {
	f.getID = id
	return f.video, f.getErr
}
func (f *fakeAPI) Ping(context.Context) error { return f.pingErr }
func (f *fakeAPI) ClearToken()                { f.tokenCleared = true }

func newTestApp(f *fakeAPI) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{api: f, out: &out, reader: bufio.NewReader(strings.NewReader(""))}, &out
}

// stubInputs answers text prompts in order and returns password for the
// password prompt.
func stubInputs(t *testing.T, answers []string, password []byte) {
	t.Helper()
	origST, origFP, origML, origGP := getSimpleText, getFilePath, getMultiline, getPassword
	t.Cleanup(func() {
		getSimpleText, getFilePath, getMultiline, getPassword = origST, origFP, origML, origGP
	})

	next := func() string {
		if len(answers) == 0 {
			t.Fatal("unexpected prompt")
		}
		a := answers[0]
		answers = answers[1:]
		return a
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getFilePath = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(), nil }
	getPassword = func(_ *bufio.Reader, _ io.Writer) ([]byte, error) { return password, nil }
}
