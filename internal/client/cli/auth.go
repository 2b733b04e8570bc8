package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clipshare/internal/client/api"
	"github.com/dmitrijs2005/clipshare/internal/common"
)

// Prompt indirections, replaced in tests.
var (
	getSimpleText = GetSimpleText
	getFilePath   = GetFilePath
	getMultiline  = GetMultiline
	getPassword   = GetPassword
)

var errNotLoggedIn = errors.New("not logged in, use 'login' or 'register' first")

// Register prompts for username, email and password and creates an
// account. On success the new user is logged in. The password byte slice
// is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Register(ctx, userName, email, password)
	if err != nil {
		return err
	}

	a.startSession(s)
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", s.User.UserName)
	return nil
}

// Login prompts for credentials and authenticates. The password is wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Login(ctx, userName, password)
	if err != nil {
		return err
	}

	a.startSession(s)
	fmt.Fprintf(a.out, "Logged in as %s\n", s.User.UserName)
	return nil
}

func (a *App) startSession(s *api.Session) {
	u := s.User
	a.user = &u
	a.setMode(ModeOnline)
}

// Logout drops the in-memory token and user.
func (a *App) Logout(context.Context) error {
	a.api.ClearToken()
	a.user = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI prints the profile of the logged-in user as the server sees it.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	u, err := a.api.Me(ctx)
	if err != nil {
		return a.checkSession(err)
	}
	a.user = u

	fmt.Fprintf(a.out, "%s <%s>\n  id: %s\n  videos: %d  followers: %d  following: %d\n  member since: %s\n",
		u.UserName, u.Email, u.ID, u.VideoCount, u.FollowerCount, u.FollowingCount,
		u.CreatedAt.Local().Format("2006-01-02"))
	return nil
}

// checkSession logs the user out locally when the server rejects the token.
func (a *App) checkSession(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		a.api.ClearToken()
		a.user = nil
		return fmt.Errorf("session ended (%w), please log in again", err)
	}
	return err
}
