package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/wasteops/pkg/runtime/terminal/commands"
	"github.com/de-tools/wasteops/pkg/runtime/terminal/export"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// DefaultSessionID is the session the terminal uses unless --session is given,
// so consecutive invocations share one persisted context.
var DefaultSessionID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("wasteops:terminal")).String()

// CLI represents the command-line interface
type CLI struct {
	sessions *session.Manager
	catalog  commands.Catalog
	reporter *export.Reporter
	globals  *commands.Globals
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Sessions *session.Manager
	Catalog  commands.Catalog
	Output   io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		sessions: opts.Sessions,
		catalog:  opts.Catalog,
		reporter: export.NewReporter(opts.Output),
		globals:  &commands.Globals{},
	}

	cli.rootCmd = cli.newRootCmd(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wasteops",
		Short:         "Waste operations reports from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&cli.globals.Session, "session", DefaultSessionID, "Session id whose context is used")
	cmd.PersistentFlags().StringVarP(&cli.globals.Output, "output", "o", string(export.FormatTable), "Output format: table or json")

	cmd.AddCommand(commands.NewReportCmd(cli.globals, cli.sessions, cli.reporter))
	cmd.AddCommand(commands.NewReportsCmd(cli.globals, cli.sessions.Registry(), cli.reporter))
	cmd.AddCommand(commands.NewShareCmd(cli.globals, cli.sessions, cli.reporter))
	cmd.AddCommand(commands.NewContextCmd(cli.globals, cli.sessions, cli.reporter))
	cmd.AddCommand(commands.NewCitiesCmd(cli.catalog, cli.reporter))
	cmd.AddCommand(commands.NewReportTypesCmd(cli.catalog, cli.reporter))

	return cmd
}
