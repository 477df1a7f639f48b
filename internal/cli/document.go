package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/operations"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
)

func newDocumentCmd(a *app) *cobra.Command {
	var (
		out   string
		sheet string
		store bool
	)

	cmd := &cobra.Command{
		Use:   "document <pdf>",
		Short: "Extract every embedded image of a PDF",
		Long: `Saves each raster image embedded in the document as page{P}_img{I}.{ext} inside a
new Extracted_Images_<YYYY-MM-DD_HH-MM-SS> folder, together with an image metadata
sheet (CSV or Parquet). Either everything is extracted or nothing is left behind.`,
		Example: `  micrograph-mcp document paper.pdf --out ./extracted
  micrograph-mcp document paper.pdf --out ./extracted --sheet parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			req := operations.DocumentRequest{
				DocumentPath: args[0],
				OutputDir:    out,
				SheetFormat:  sheet,
			}
			if req.OutputDir == "" {
				req.OutputDir = a.cfg.Output.Dir
			}
			if req.SheetFormat == "" {
				req.SheetFormat = a.cfg.Output.SheetFormat
			}
			if err := req.Validate(); err != nil {
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

			result, err := operations.ExtractDocument(cmd.Context(), req, st, a.log)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, img := range result.Extraction.Images {
				fmt.Fprintf(w, "page %d image %d: %s (%dx%d %s, %d bpc)\n",
					img.Page, img.ImageNumber, img.Filename, img.Width, img.Height, img.ColorSpace, img.BitsPerComponent)
			}
			fmt.Fprintf(w, "Extracted %d images into %s\n", len(result.Extraction.Images), result.Extraction.OutputDir)
			fmt.Fprintf(w, "Image metadata sheet: %s\n", result.Extraction.SheetPath)
			if store {
				fmt.Fprintf(cmd.ErrOrStderr(), "Stored as %s\n", result.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "folder to create the extraction folder in (default from configuration)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "image metadata sheet format: csv or parquet (default from configuration)")
	cmd.Flags().BoolVar(&store, "store", false, "also save the run in the record database")

	return cmd
}
