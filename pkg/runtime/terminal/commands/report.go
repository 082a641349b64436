package commands

import (
	"errors"
	"fmt"

	"github.com/de-tools/wasteops/pkg/runtime/terminal/export"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/spf13/cobra"
)

type ReportCmd struct {
	globals  *Globals
	sessions *session.Manager
	reporter *export.Reporter
	params   []string
	reload   bool
}

func NewReportCmd(globals *Globals, sessions *session.Manager, reporter *export.Reporter) *cobra.Command {
	rc := &ReportCmd{globals: globals, sessions: sessions, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "report NAME",
		Short: "Fetch, filter and print a report",
		Args:  cobra.ExactArgs(1),
		RunE:  rc.run,
	}

	cmd.Flags().StringArrayVarP(&rc.params, "param", "p", nil, "Page parameter as key=value, e.g. -p city=Pune -p only_incorrect=true")
	cmd.Flags().BoolVar(&rc.reload, "reload", false, "Bypass the cached records")

	return cmd
}

func (rc *ReportCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	reporter, err := rc.globals.reporter(rc.reporter)
	if err != nil {
		return err
	}
	query, err := parseParams(rc.params)
	if err != nil {
		return err
	}

	s, _, err := rc.sessions.Open(ctx, rc.globals.Session, query)
	if err != nil {
		return err
	}

	view, err := rc.sessions.Report(ctx, s, args[0], query, rc.reload)
	if errors.Is(err, session.ErrUnknownReport) {
		return fmt.Errorf("%w; run `wasteops reports` for the list", err)
	}
	if view.Report == "" {
		return err
	}

	if herr := reporter.Handle(view); herr != nil {
		return herr
	}
	return err
}
