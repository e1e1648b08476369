package main

import (
	"fmt"
	"io"

	"github.com/layer-3/xamanauth/core"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connected wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			printStatus(cmd.OutOrStdout(), a.controller.State(), a.cfg.Store.Backend)
			return nil
		},
	}
}

func printStatus(out io.Writer, state core.AuthState, backend string) {
	fmt.Fprintln(out, styleHeader.Render("Wallet"))
	if state.Connected && state.Session != nil {
		fmt.Fprintln(out, row("Status", styleSuccess.Render("connected")))
		fmt.Fprintln(out, row("Address", state.Session.WalletAddress))
	} else {
		fmt.Fprintln(out, row("Status", styleWarning.Render("not connected")))
	}
	fmt.Fprintln(out, row("Store", backend))
}
