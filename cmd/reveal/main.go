package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"infusesecret/internal/client"
	"infusesecret/internal/message"
	"infusesecret/internal/platform/config"
	"infusesecret/internal/reveal"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	cfg := config.Defaults()
	if err := config.Load(); err == nil {
		cfg = config.Get()
	}

	fs := pflag.NewFlagSet("reveal", pflag.ContinueOnError)
	id := fs.String("id", "", "message id to reveal")
	apiURL := fs.String("api", cfg.Client.BaseURL, "API base URL including /api")
	timeout := fs.Duration("timeout", time.Duration(cfg.Client.Timeout)*time.Second, "HTTP timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}
	if *id == "" {
		return fmt.Errorf("message id is required")
	}

	api := client.New(client.Config{BaseURL: *apiURL, Timeout: *timeout})

	ctx := context.Background()
	msg, err := api.GetMessage(ctx, *id)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("message %s not found", *id)
		}
		return err
	}

	session := reveal.NewSession(msg.ID, msg.Theme, reveal.WithScanRecorder(api))
	theme := session.Theme()

	fmt.Fprintf(out, "%s  %s\n", theme.Pattern, session.Hint())
	scanner := bufio.NewScanner(in)
	for session.State() != reveal.Unlocked {
		fmt.Fprint(out, "[press Enter] ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		session.Click()
		fmt.Fprintf(out, "%s  %s\n", theme.Pattern, session.Hint())
	}

	var symbols []string
	for _, p := range session.Particles() {
		symbols = append(symbols, p.Symbol)
	}
	fmt.Fprintln(out, strings.Join(symbols, " "))
	printMessage(out, msg)

	session.Wait()
	return nil
}

func printMessage(out io.Writer, msg *message.View) {
	fmt.Fprintf(out, "\n%s\n", msg.Message)
	if msg.Quote != nil {
		fmt.Fprintf(out, "\n  \"%s\"\n", *msg.Quote)
	}
	if msg.PhotoURL != nil {
		fmt.Fprintf(out, "\n  photo: %s\n", *msg.PhotoURL)
	}
}
