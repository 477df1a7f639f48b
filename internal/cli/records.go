package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newRecordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List the records saved in the record database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, st.Close())
			}()

			infos, err := st.ListRecords(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No records stored")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tNAME\tIMAGE")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.RecordID, info.Kind, info.Name, info.SourceInfo.ImagePath)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <record-id>...",
		Short: "Remove records from the record database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, st.Close())
			}()

			for _, id := range args {
				if derr := st.DeleteRecord(cmd.Context(), id); derr != nil {
					err = multierr.Append(err, derr)
					continue
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %s\n", id)
			}
			return err
		},
	})

	return cmd
}
