package commands

import (
	"github.com/de-tools/wasteops/pkg/runtime/terminal/export"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/spf13/cobra"
)

type ShareCmd struct {
	globals  *Globals
	sessions *session.Manager
	reporter *export.Reporter
	params   []string
}

func NewShareCmd(globals *Globals, sessions *session.Manager, reporter *export.Reporter) *cobra.Command {
	sc := &ShareCmd{globals: globals, sessions: sessions, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "share PATH",
		Short: "Print a link reproducing a page with the current context",
		Args:  cobra.ExactArgs(1),
		RunE:  sc.run,
	}

	cmd.Flags().StringArrayVarP(&sc.params, "param", "p", nil, "Page parameter as key=value")

	return cmd
}

func (sc *ShareCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	local, err := parseParams(sc.params)
	if err != nil {
		return err
	}

	s, _, err := sc.sessions.Open(ctx, sc.globals.Session, nil)
	if err != nil {
		return err
	}
	nav, err := sc.sessions.Navigator(s, nil)
	if err != nil {
		return err
	}

	reporter, err := sc.globals.reporter(sc.reporter)
	if err != nil {
		return err
	}
	return reporter.HandleLink(nav.GenerateShareableURL(args[0], flatten(local)))
}
