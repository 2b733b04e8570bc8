package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/clipshare/internal/client/api"
)

// openFile is a test seam for reading the upload source.
var openFile = func(path string) (io.ReadCloser, error) { return os.Open(path) }

// Upload prompts for a file path, title and description and uploads the
// file. Requires a login.
func (a *App) Upload(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	path, err := getFilePath(a.reader, "Path to video file", a.out)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("path is required")
	}
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}

	f, err := openFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(a.out, "Uploading...")
	v, err := a.api.Upload(ctx, api.UploadRequest{
		FileName:    path,
		Title:       title,
		Description: description,
		Body:        f,
	})
	if err != nil {
		return a.checkSession(err)
	}

	fmt.Fprintf(a.out, "Uploaded %q (%s, %d bytes) as %s\n", v.Title, v.ContentType, v.SizeBytes, v.ID)
	return nil
}

// List prints the newest videos of all users.
func (a *App) List(ctx context.Context, args []string) error {
	limit, offset, err := parsePaging(args)
	if err != nil {
		return err
	}

	list, err := a.api.ListVideos(ctx, limit, offset)
	if err != nil {
		return err
	}
	a.printVideos(list)
	return nil
}

// Mine prints the logged-in user's videos.
func (a *App) Mine(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	limit, offset, err := parsePaging(args)
	if err != nil {
		return err
	}

	list, err := a.api.ListUserVideos(ctx, a.user.ID, limit, offset)
	if err != nil {
		return err
	}
	a.printVideos(list)
	return nil
}

// Show prints one video including its playback URL.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: show <id>")
	}

	v, err := a.api.GetVideo(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\n  id: %s\n  owner: %s\n  type: %s, %d bytes\n  uploaded: %s\n",
		v.Title, v.ID, v.OwnerID, v.ContentType, v.SizeBytes, v.CreatedAt.Local().Format("2006-01-02 15:04"))
	if v.Description != "" {
		fmt.Fprintf(a.out, "  %s\n", v.Description)
	}
	url := v.PlaybackURL
	if url == "" {
		url = v.MediaURL
	}
	fmt.Fprintf(a.out, "  play: %s\n", url)
	return nil
}

func parsePaging(args []string) (limit, offset int, err error) {
	if len(args) > 0 {
		if limit, err = strconv.Atoi(args[0]); err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", args[0])
		}
	}
	if len(args) > 1 {
		if offset, err = strconv.Atoi(args[1]); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", args[1])
		}
	}
	return limit, offset, nil
}

func (a *App) printVideos(list []api.Video) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No videos")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSIZE\tUPLOADED")
	for _, v := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", v.ID, v.Title, v.SizeBytes, v.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
