package commands

import (
	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/runtime/terminal/export"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/spf13/cobra"
)

type ContextCmd struct {
	globals  *Globals
	sessions *session.Manager
	reporter *export.Reporter

	city  string
	date  string
	start string
	end   string
}

func NewContextCmd(globals *Globals, sessions *session.Manager, reporter *export.Reporter) *cobra.Command {
	cc := &ContextCmd{globals: globals, sessions: sessions, reporter: reporter}

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show or change the persisted city and date selection",
		Args:  cobra.NoArgs,
		RunE:  cc.show,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Set context fields; an empty value clears a field",
		Args:  cobra.NoArgs,
		RunE:  cc.set,
	}
	set.Flags().StringVar(&cc.city, "city", "", "Selected city")
	set.Flags().StringVar(&cc.date, "date", "", "Selected date (YYYY-MM-DD)")
	set.Flags().StringVar(&cc.start, "start", "", "Date range start (YYYY-MM-DD)")
	set.Flags().StringVar(&cc.end, "end", "", "Date range end (YYYY-MM-DD)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear every context field",
		Args:  cobra.NoArgs,
		RunE:  cc.clear,
	}

	cmd.AddCommand(set, clearCmd)
	return cmd
}

func (cc *ContextCmd) open(cmd *cobra.Command) (*session.Session, *export.Reporter, error) {
	reporter, err := cc.globals.reporter(cc.reporter)
	if err != nil {
		return nil, nil, err
	}
	s, _, err := cc.sessions.Open(cmd.Context(), cc.globals.Session, nil)
	if err != nil {
		return nil, nil, err
	}
	return s, reporter, nil
}

func (cc *ContextCmd) show(cmd *cobra.Command, _ []string) error {
	s, reporter, err := cc.open(cmd)
	if err != nil {
		return err
	}
	return reporter.HandleContext(s.Context.Snapshot())
}

func (cc *ContextCmd) set(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, reporter, err := cc.open(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("date") {
		if err := s.Context.SetDate(ctx, cc.date); err != nil {
			return err
		}
	}
	if flags.Changed("start") || flags.Changed("end") {
		r := s.Context.DateRange()
		if flags.Changed("start") {
			r.Start = cc.start
		}
		if flags.Changed("end") {
			r.End = cc.end
		}
		if err := s.Context.SetDateRange(ctx, r); err != nil {
			return err
		}
	}
	if flags.Changed("city") {
		s.Context.SetCity(ctx, &domain.City{City: cc.city})
	}

	return reporter.HandleContext(s.Context.Snapshot())
}

func (cc *ContextCmd) clear(cmd *cobra.Command, _ []string) error {
	s, reporter, err := cc.open(cmd)
	if err != nil {
		return err
	}
	s.Context.Clear(cmd.Context())
	return reporter.HandleContext(s.Context.Snapshot())
}
