package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"nsctl/cli/internal/backend"
	clierrors "nsctl/cli/internal/errors"
	"nsctl/cli/internal/httperrors"

	"github.com/spf13/cobra"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// startInlineSpinner starts a simple inline spinner animation on a single line.
// It displays rotating animation frames followed by the provided text, updating
// the same line in the terminal. The spinner runs in a separate goroutine and
// can be stopped by calling the returned function, which also clears the line.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				// Clear the spinner line completely, then return
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}

// withSpinner runs fn with an inline spinner on stderr.
func withSpinner(text string, fn func() error) error {
	stop := startInlineSpinner(os.Stderr, text, spinnerFrames, 120*time.Millisecond)
	defer stop()
	return fn()
}

// remote runs fn against the controller with a valid token, the configured
// timeout and a spinner labelled with label.
func remote(cmd *cobra.Command, a *app, label string, fn func(ctx context.Context, be backend.API, token string) error) error {
	be := newBackend(a.cfg, a.log)
	return withSpinner(label, func() error {
		return a.auth.WithToken(cmd.Context(), func(token string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			return fn(ctx, be, token)
		})
	})
}

// explainFailure prints troubleshooting hints for transport failures and
// controller statuses, then returns err unchanged. Typed errors other than
// ServerRejected carry their own explanation and are left alone.
func explainFailure(err error, action, server string) error {
	if err == nil {
		return nil
	}
	var typed *clierrors.E
	if errors.As(err, &typed) && typed.Kind != clierrors.ServerRejected {
		return err
	}
	httperrors.Report(err, action, httperrors.ExtractHostFromURL(server))
	return err
}

// requireServer returns an error when no controller URL is configured.
func requireServer(server string) error {
	if backend.NormalizeBaseURL(server) == "" {
		return fmt.Errorf("no controller configured; run 'nsctl login --server <url>'")
	}
	return nil
}

// confirm asks a yes/no question; only "y" or "yes" agree.
func confirm(question string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	ans, err := promptFactory().Line(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch ans {
	case "y", "Y", "yes", "YES", "Yes":
		return true, nil
	}
	return false, nil
}
