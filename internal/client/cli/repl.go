package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// executor is the command surface the REPL dispatches to.
type executor interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Analyze(ctx context.Context, path string) error
	History(ctx context.Context, limit int) error
	Logout(ctx context.Context) error
	report(err error)
}

// runREPL reads commands line by line until EOF, "exit" or "quit".
//
//	Not logged in:  help, register, login, exit
//	Logged in:      help, analyze [path], history [limit], logout, exit
func runREPL(ctx context.Context, a executor, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "dc [%s]> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: analyze [path], history [limit], logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, exit")
			}

		case "register":
			a.report(a.Register(ctx))

		case "login":
			a.report(a.Login(ctx))

		case "analyze":
			if !a.isLoggedIn() {
				fmt.Fprintln(w, "Please log in first")
				continue
			}
			a.report(a.Analyze(ctx, strings.Join(args, " ")))

		case "history":
			if !a.isLoggedIn() {
				fmt.Fprintln(w, "Please log in first")
				continue
			}
			limit := 0
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					fmt.Fprintln(w, "limit must be a positive number")
					continue
				}
				limit = n
			}
			a.report(a.History(ctx, limit))

		case "logout":
			a.report(a.Logout(ctx))

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
