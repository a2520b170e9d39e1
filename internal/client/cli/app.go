// Package cli implements the interactive deepcheck command line client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/deepcheck/internal/client/api"
	"github.com/dmitrijs2005/deepcheck/internal/client/config"
	"github.com/dmitrijs2005/deepcheck/internal/shared"
)

// apiClient is the subset of *api.Client the commands use.
type apiClient interface {
	LoggedIn() bool
	Logout()
	Status(ctx context.Context) (*api.Status, error)
	Register(ctx context.Context, email string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Analyze(ctx context.Context, filename, contentType string, data []byte) (*api.Result, error)
	History(ctx context.Context, limit int) ([]api.Record, error)
}

// getSimpleText and getPassword are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

type App struct {
	client   apiClient
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config) *App {
	return &App{
		client: api.NewClient(c.ServerURL, c.Timeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run starts the REPL on stdin and returns when the user exits.
func (a *App) Run(ctx context.Context) {
	if s, err := a.client.Status(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	} else if !s.ModelLoaded {
		fmt.Fprintln(a.out, "warning: server model is not loaded yet")
	}
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) isLoggedIn() bool { return a.client.LoggedIn() }

func (a *App) status() string {
	if a.isLoggedIn() {
		return a.userName
	}
	return "not logged in"
}

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	if err := a.client.Register(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Success!")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	if err := a.client.Login(ctx, email, password); err != nil {
		return err
	}
	a.userName = shared.NormalizeEmail(email)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(context.Context) error {
	a.client.Logout()
	a.userName = ""
	return nil
}

// Analyze uploads the image at path and prints the verdict.
func (a *App) Analyze(ctx context.Context, path string) error {
	if path == "" {
		p, err := getSimpleText(a.reader, "Enter image path", a.out)
		if err != nil {
			return err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	contentType := http.DetectContentType(data)

	res, err := a.client.Analyze(ctx, filepath.Base(path), contentType, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (confidence %.2f%%)\n", res.Prediction, res.Confidence*100)
	return nil
}

func (a *App) History(ctx context.Context, limit int) error {
	recs, err := a.client.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No analyses yet")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(a.out, "%s  %-5s %6.2f%%  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Result.Prediction, r.Result.Confidence*100, r.OriginalFilename)
	}
	return nil
}

// report prints a command error in a user-facing form.
func (a *App) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, api.ErrUnauthorized) && a.isLoggedIn() {
		a.client.Logout()
		a.userName = ""
		fmt.Fprintln(a.out, "Session expired, please log in again")
		return
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
}
