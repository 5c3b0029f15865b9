package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quanmltya/repeat/internal/recorder"
)

// newSessionsCmd creates the sessions parent command.
func newSessionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage recorded sessions",
	}
	cmd.AddCommand(newSessionsListCmd(c))
	cmd.AddCommand(newSessionsDeleteCmd(c))
	cmd.AddCommand(newSessionsExportCmd(c))
	cmd.AddCommand(newSessionsImportCmd(c))
	return cmd
}

func newSessionsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			if len(list) == 0 {
				p.line("no sessions recorded")
				return nil
			}
			tw := p.table()
			fmt.Fprintln(tw, "ID\tNAME\tCREATED\tEVENTS\tDURATION")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					s.ID, orDash(s.Name), s.Created.Local().Format(time.DateTime), s.Events, s.Duration.Round(time.Millisecond))
			}
			return tw.Flush()
		},
	}
}

func newSessionsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			st, err := c.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteSession(cmd.Context(), id); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).success("deleted %s", id)
			return nil
		},
	}
}

func newSessionsExportCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a session as portable JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			st, err := c.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := st.LoadSession(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				data, err := recorder.Export(s)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := recorder.SaveFile(s, out); err != nil {
				return err
			}
			newPrinter(cmd.ErrOrStderr()).success("exported %s to %s", id, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output file; - writes stdout")
	return cmd
}

func newSessionsImportCmd(c *cli) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a session exported as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := recorder.LoadFile(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				s.Name = name
			}
			st, err := c.requireStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SaveSession(cmd.Context(), s); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).success("imported %s (%d events)", s.ID, s.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Rename the imported session")
	return cmd
}

func parseSessionID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session ID %q: %w", s, err)
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
