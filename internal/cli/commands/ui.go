package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/vitrine/internal/ui"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Host      string
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the vitrine dashboard",
		Long: `Start a local web server serving the analytics dashboard.

The dashboard provides:
- Pipeline control (download, build, refresh) gated on pipeline status
- Revenue, order, and customer analytics over the built marts
- A data explorer for raw tables and models
- Run history`,
		Example: `  # Start the dashboard on the default port
  vitrine ui

  # Start on a custom port
  vitrine ui --port 3000

  # Start without auto-opening the browser
  vitrine ui --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to bind (default: localhost)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8780)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch the warehouse file for changes")

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// UI config with defaults, CLI flags override the config file
	uiCfg := cc.Cfg.GetUIConfig()

	host := uiCfg.Host
	if opts.Host != "" {
		host = opts.Host
	}

	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := uiCfg.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	store, err := newWarehouseStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	serverCfg := ui.Config{
		Driver:        cc.Driver,
		Warehouse:     store,
		History:       cc.History,
		Host:          host,
		Port:          port,
		Watch:         watch,
		Dataset:       cc.Cfg.Dataset,
		PreviewLimit:  uiCfg.DataPreviewLimit,
		SessionSecret: sessionSecret(),
		Logger:        cc.Logger,
	}

	server := ui.NewServer(serverCfg)

	// Open browser if configured
	if autoOpen {
		url := fmt.Sprintf("http://%s:%d", host, port)
		go openBrowser(url)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting dashboard on http://%s:%d\n", host, port)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// sessionSecret returns the cookie-signing secret. A fixed fallback keeps
// local development working; deployments set VITRINE_SESSION_SECRET.
func sessionSecret() string {
	secret := os.Getenv("VITRINE_SESSION_SECRET")
	if secret == "" {
		secret = "vitrine-dev-secret-change-in-production" //nolint:gosec
	}
	return secret
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
