// Package cli provides the interactive ClipShare command-line client.
//
// It wires configuration, the HTTP API client and a REPL. A background
// watcher probes the server's health endpoint and shows the connectivity
// mode in the prompt.
//
// Commands:
//   - register / login / logout / whoami
//   - upload: send a video file with a title and description
//   - list [limit] [offset]: newest videos of all users
//   - mine [limit] [offset]: your own videos
//   - show <id>: one video with its playback URL
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// The bearer token is held in memory only and dropped on logout.
package cli
