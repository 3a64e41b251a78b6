package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/registry"
	"github.com/matzehuels/schemahub/pkg/validation"
	"github.com/matzehuels/schemahub/pkg/version"
)

// validateCommand creates the validate command, which checks a working tree
// the way a run checks a tagged release.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		kind  string
		label string
	)

	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check a schema package directory before tagging it",
		Long: `Validate runs the release checks on a local directory: required files,
schema syntax and the schema profile of the declared type. Nothing is extracted
and no repository access takes place.`,
		Example: `  schemahub validate .
  schemahub validate ./weather --type jsonschema --version v1.2.0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.validate(dir, kind, label)
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(registry.KindTableSchema), "schema type of the package")
	cmd.Flags().StringVar(&label, "version", "", "tag the release would get (checked as a version)")

	return cmd
}

func (c *CLI) validate(dir, kind, label string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", dir)
	}
	rel := version.Release{Label: "working tree", Version: "local"}
	if label != "" {
		if rel, err = version.Parse(label); err != nil {
			return err
		}
	}
	src := registry.PackageSource{
		ID:    filepath.Base(abs),
		URL:   abs,
		Owner: filepath.Base(filepath.Dir(abs)),
		Name:  filepath.Base(abs),
		Kind:  registry.SchemaKind(kind),
	}

	p := printer{c.Out}
	meta, verr := validation.New(nil, validation.WithLogger(c.Logger)).Check(src, rel, abs)
	if verr != nil {
		p.failure("%s", verr.Detail)
		p.detail("%s", verr.Code)
		return verr
	}

	p.success("%s is a valid %s package", abs, kind)
	p.keyValue("Title", meta.Title)
	p.keyValue("Version", meta.Version)
	p.keyValue("Author", meta.Author)
	p.keyValue("Contact", meta.Contact)
	p.keyValue("Homepage", meta.Homepage)
	if label != "" && meta.Version != "" && meta.Version != rel.Version {
		p.warning("schema declares version %s but the tag would be %s", meta.Version, rel.Version)
	}
	return nil
}
