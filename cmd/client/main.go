// Command client is the interactive linechat client.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/NicolasHaas/linechat/pkg/client"
	"github.com/NicolasHaas/linechat/pkg/logging"
	"github.com/NicolasHaas/linechat/pkg/protocol"
	"github.com/NicolasHaas/linechat/pkg/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "linechat-client: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts := client.DefaultOptions()
	var logLevel string
	var showVersion bool

	fs := flag.NewFlagSet("linechat-client", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: linechat-client [flags] <host> <port>\n")
		fmt.Fprintf(os.Stderr, "Example: linechat-client 127.0.0.1 5550\n\n")
		fs.PrintDefaults()
	}
	fs.Uint64Var(&opts.MaxRetries, "retries", opts.MaxRetries, "Connection attempts after the first failure")
	fs.DurationVar(&opts.DialTimeout, "dial-timeout", opts.DialTimeout, "Timeout per connection attempt")
	fs.StringVar(&logLevel, "log-level", "warn", "Log level: "+logging.LevelNames())
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Fprintf(stdout, "linechat-client %s\n", version.Full())
		return nil
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("expected <host> <port>, got %d arguments", fs.NArg())
	}
	host, port := fs.Arg(0), fs.Arg(1)
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}

	if err := logging.Setup(logging.Options{Level: logLevel, Output: os.Stderr}); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	addr := net.JoinHostPort(host, port)
	fmt.Fprintf(stdout, "Connecting to %s...\n", addr)
	c, err := client.Dial(ctx, addr, opts)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	fmt.Fprintf(stdout, "Server: %s\n", c.Banner().Text)

	interactive := false
	if f, ok := stdin.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
	}
	return runMenu(c, stdin, stdout, interactive)
}

// requester is the part of client.Client the menu drives.
type requester interface {
	Login(username string) (protocol.Response, error)
	Post(text string) (protocol.Response, error)
	Logout() (protocol.Response, error)
}

// runMenu reads menu choices from in until "4" or end of input. Prompts are
// printed only when in is a terminal; server replies are always printed.
func runMenu(c requester, in io.Reader, out io.Writer, interactive bool) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), protocol.MaxMessageSize)

	prompt := func(s string) {
		if interactive {
			fmt.Fprint(out, s)
		}
	}
	readLine := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return strings.TrimRight(sc.Text(), "\r"), true
	}

	for {
		prompt("\nMenu:\n1. Log in\n2. Post message\n3. Log out\n4. Exit\nChoose an option: ")
		line, ok := readLine()
		if !ok {
			return sc.Err()
		}

		var (
			resp protocol.Response
			err  error
		)
		switch strings.TrimSpace(line) {
		case "1":
			prompt("Enter username: ")
			username, ok := readLine()
			if !ok {
				return sc.Err()
			}
			resp, err = c.Login(username)
		case "2":
			prompt("Enter message: ")
			text, ok := readLine()
			if !ok {
				return sc.Err()
			}
			resp, err = c.Post(text)
		case "3":
			resp, err = c.Logout()
		case "4":
			return nil
		default:
			fmt.Fprintln(out, "Invalid choice")
			continue
		}
		if errors.Is(err, client.ErrInvalidArgument) {
			fmt.Fprintf(out, "Invalid input: %v\n", err)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Server: %s\n", resp.Text)
	}
}
