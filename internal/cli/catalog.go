package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemahub/pkg/catalog"
	"github.com/matzehuels/schemahub/pkg/errors"
	schemaio "github.com/matzehuels/schemahub/pkg/io"
)

// catalogCommand creates the catalog inspection command.
func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the published catalog",
	}

	cmd.AddCommand(c.catalogListCommand())
	cmd.AddCommand(c.catalogShowCommand())

	return cmd
}

// loadCatalog reads the catalog from the configured backend.
func (c *CLI) loadCatalog(cmd *cobra.Command) (catalog.Catalog, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.LoadCatalog(cmd.Context())
}

func (c *CLI) catalogListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every package with its latest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(cmd)
			if err != nil {
				return err
			}
			p := printer{c.Out}
			if len(cat) == 0 {
				p.info("Catalog is empty")
				return nil
			}

			rows := make([][]string, 0, len(cat))
			for _, e := range cat.Entries() {
				rows = append(rows, []string{e.Slug, e.LatestVersion, strconv.Itoa(len(e.Versions)), e.Kind, e.Title})
			}
			p.line(renderTable([]string{"Package", "Latest", "Versions", "Type", "Title"}, rows))
			return nil
		},
	}
}

func (c *CLI) catalogShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <owner/name>",
		Short: "Show the catalog entry of one package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(cmd)
			if err != nil {
				return err
			}
			e, ok := cat[args[0]]
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "package %s is not in the catalog", args[0])
			}

			switch schemaio.Format(format) {
			case schemaio.FormatJSON, schemaio.FormatYAML:
				return schemaio.Encode(c.Out, e, schemaio.Format(format))
			case "":
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want json or yaml)", format)
			}

			p := printer{c.Out}
			p.line(StyleTitle.Render(e.Slug))
			p.keyValue("ID", e.ID)
			p.keyValue("Title", e.Title)
			p.keyValue("Description", e.Description)
			p.keyValue("Type", e.Kind)
			p.keyValue("Latest", e.LatestVersion)
			p.keyValue("Versions", strings.Join(e.Versions, ", "))
			p.keyValue("Author", e.Author)
			p.keyValue("Contact", e.Contact)
			p.keyValue("Owner email", e.Email)
			if e.Homepage != "" {
				p.keyValue("Homepage", StyleLink.Render(e.Homepage))
			}
			p.keyValue("Changelog", strconv.FormatBool(e.HasChangelog))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "", "print the raw entry as json or yaml")

	return cmd
}
