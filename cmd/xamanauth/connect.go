package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/layer-3/xamanauth"
	"github.com/layer-3/xamanauth/core"
	"github.com/spf13/cobra"
)

// errCancelled is returned when the user interrupts a pending sign-in
var errCancelled = errors.New("sign-in cancelled")

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Pair a Xaman wallet by scanning a QR code",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(context.WithoutCancel(ctx))
			if err != nil {
				return err
			}
			defer a.Close()

			return connectWallet(ctx, a.controller, cmd.OutOrStdout())
		},
	}
}

// connectWallet starts a sign-in and waits for it to finish. Cancelling ctx
// abandons the request.
func connectWallet(ctx context.Context, client xamanauth.Client, out io.Writer) error {
	if state := client.State(); state.Connected {
		fmt.Fprintln(out, styleSuccess.Render("Already connected as "+state.Session.WalletAddress))
		return nil
	}

	states, unsubscribe := client.Subscribe()
	defer unsubscribe()

	if err := client.Connect(ctx); err != nil {
		if msg := client.State().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	shown := ""
	for {
		select {
		case <-ctx.Done():
			client.CancelConnection()
			fmt.Fprintln(out, styleWarning.Render("Sign-in cancelled"))
			return errCancelled

		case state, ok := <-states:
			if !ok {
				return errCancelled
			}
			if state.QRCode != "" && state.QRCode != shown {
				shown = state.QRCode
				fmt.Fprintln(out, renderPairing(state))
			}
			switch {
			case state.Connected:
				fmt.Fprintln(out, styleSuccess.Render("Connected as "+state.Session.WalletAddress))
				return nil
			case !state.Connecting && state.Error != "":
				return errors.New(state.Error)
			}
		}
	}
}

func renderPairing(state core.AuthState) string {
	body := styleHeader.Render("Scan with Xaman to sign in") + "\n\n" +
		row("QR code", styleInfo.Render(state.QRCode))
	if state.DeepLink != "" {
		body += "\n" + row("Open link", styleInfo.Render(state.DeepLink))
	}
	body += "\n\nPress Ctrl-C to cancel"
	return styleBox.Render(body)
}
