package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/export"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/operations"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/tagreader"
)

func newImageCmd(a *app) *cobra.Command {
	var (
		sidecarPath string
		out         string
		format      string
		store       bool
	)

	cmd := &cobra.Command{
		Use:   "image <image>",
		Short: "Extract the metadata record of one micrograph",
		Long: `Reads the tags embedded in the image and prints the normalized record.

With --sidecar the record is built from the instrument sidecar file instead and
its image_file/metadata_file names are derived from the stem, the instrument and
the acquisition date.`,
		Example: `  # Print the normalized tags of a TIFF
  micrograph-mcp image sample01.tif

  # Use the instrument sidecar and save sample01_metadata.json next to the image
  micrograph-mcp image sample01.tif --sidecar sample01.txt --out .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if format == "" {
				format = a.cfg.Output.RecordFormat
			}
			if err := export.ValidateFormat(format); err != nil {
				return err
			}

			var st storage.Store
			if store {
				st, err = a.openStore()
				if err != nil {
					return err
				}
				defer func() {
					err = multierr.Append(err, st.Close())
				}()
			}

			req := operations.ImageRequest{ImagePath: args[0], SidecarPath: sidecarPath}
			result, err := operations.ExtractImage(cmd.Context(), req, tagreader.New(a.log), st, a.log)
			if err != nil {
				return err
			}

			if err := export.Encode(cmd.OutOrStdout(), result.Record, format); err != nil {
				return err
			}

			if out != "" {
				path := export.ResolvePath(out, req.ImagePath, format)
				if err := export.WriteRecord(path, result.Record, format); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", path)
			}
			if store {
				fmt.Fprintf(cmd.ErrOrStderr(), "Stored as %s\n", result.RecordID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sidecarPath, "sidecar", "s", "", "instrument sidecar text file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "file or folder to save the record to")
	cmd.Flags().StringVarP(&format, "format", "f", "", "record format: json or yaml (default from configuration)")
	cmd.Flags().BoolVar(&store, "store", false, "also save the record in the record database")

	return cmd
}
