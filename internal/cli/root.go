// Package cli implements the micrograph-mcp command line.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/config"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/internal/storage"
)

// app carries what every subcommand needs once the persistent pre-run has
// loaded it.
type app struct {
	configPath string
	cfg        *config.Config
	log        logger.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "micrograph-mcp",
		Short: "Micrograph metadata extraction with an MCP server",
		Long: `micrograph-mcp turns scientific micrograph files into uniform JSON metadata records.

Embedded image tags are normalized (XML values become nested objects, key=value
blocks become a "plain" object), instrument sidecar files are parsed from their
$KEY value lines, and raster images embedded in PDF documents are extracted
together with a metadata sheet. The same operations are served as MCP tools.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file (default $"+config.EnvConfigPath+" or ~/.micrograph-mcp/config.yaml)")

	// Add subcommands
	cmd.AddCommand(newImageCmd(a))
	cmd.AddCommand(newDocumentCmd(a))
	cmd.AddCommand(newRecordsCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

func (a *app) setup() error {
	path := a.configPath
	if path == "" {
		path = config.ResolvePath()
	}
	cfg, err := config.LoadConfiguration(path)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) openStore() (storage.Store, error) {
	dbPath, err := a.cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteStore(dbPath, a.log)
}
