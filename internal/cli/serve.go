package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/matzehuels/schemahub/pkg/artifact"
	"github.com/matzehuels/schemahub/pkg/catalog"
	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/httputil"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command, a read-only HTTP view of the
// catalog and the published READMEs.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse the catalog over HTTP",
		Long: `Serve exposes the written catalog and the extracted artifacts:

  GET /catalog.json                                  the whole catalog
  GET /packages/{owner}/{name}                       one catalog entry
  GET /packages/{owner}/{name}/{version}/readme      README rendered as HTML
  GET /packages/{owner}/{name}/{version}/schema.json the published schema

{version} may be "latest". The catalog is re-read on every request, so the
output of a run shows up without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			artifacts, err := cfg.ArtifactStore(ctx)
			if err != nil {
				return err
			}
			h := newCatalogServer(cfg.LoadCatalog, artifacts, c.Logger)
			return c.listenAndServe(ctx, addr, h)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")

	return cmd
}

// listenAndServe serves h on addr until ctx is done, then shuts down.
func (c *CLI) listenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "listen on %s", addr)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	printer{c.Out}.info("Serving catalog on %s", StyleLink.Render("http://"+ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// catalogServer answers catalog and artifact requests.
type catalogServer struct {
	load      func(context.Context) (catalog.Catalog, error)
	artifacts artifact.Store
	markdown  goldmark.Markdown
	logger    *log.Logger
}

func newCatalogServer(load func(context.Context) (catalog.Catalog, error), artifacts artifact.Store, logger *log.Logger) http.Handler {
	s := &catalogServer{
		load:      load,
		artifacts: artifacts,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM, meta.Meta)),
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/catalog.json", s.handleCatalog)
	r.Route("/packages/{owner}/{name}", func(r chi.Router) {
		r.Get("/", s.handleEntry)
		r.Get("/{version}/readme", s.handleReadme)
		r.Get("/{version}/schema.json", s.handleSchema)
	})
	return r
}

func (s *catalogServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, r, s.logger, err)
}

func (s *catalogServer) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.load(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cat)
}

// entry looks up the package named by the route.
func (s *catalogServer) entry(r *http.Request) (*catalog.Entry, error) {
	cat, err := s.load(r.Context())
	if err != nil {
		return nil, err
	}
	slug := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
	e, ok := cat[slug]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "package %s is not in the catalog", slug)
	}
	return e, nil
}

func (s *catalogServer) handleEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.entry(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

// artifact reads one file of the requested release. "latest" resolves to the
// entry's latest version; other versions must be listed in the catalog.
func (s *catalogServer) artifact(r *http.Request, name string) (*catalog.Entry, string, []byte, error) {
	e, err := s.entry(r)
	if err != nil {
		return nil, "", nil, err
	}
	ver := chi.URLParam(r, "version")
	if ver == "latest" {
		ver = e.LatestVersion
	}
	known := false
	for _, v := range e.Versions {
		known = known || v == ver
	}
	if !known {
		return nil, "", nil, errors.New(errors.ErrCodeNotFound, "%s has no version %s", e.Slug, ver)
	}
	data, err := s.artifacts.Get(r.Context(), e.Slug, ver, name)
	if err != nil {
		return nil, "", nil, err
	}
	return e, ver, data, nil
}

func (s *catalogServer) handleSchema(w http.ResponseWriter, r *http.Request) {
	_, _, data, err := s.artifact(r, artifact.SchemaFile)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}

var readmePage = template.Must(template.New("readme").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} {{.Version}}</title>
</head>
<body>
<header>
<p><a href="/packages/{{.Slug}}/">{{.Slug}}</a> · {{.Version}}{{if .Homepage}} · <a href="{{.Homepage}}">homepage</a>{{end}}</p>
</header>
<main>
{{.Body}}
</main>
</body>
</html>
`))

type readmeView struct {
	Slug     string
	Version  string
	Title    string
	Homepage string
	Body     template.HTML
}

// handleReadme renders the published README. The front matter block is
// parsed for the page title and dropped from the body.
func (s *catalogServer) handleReadme(w http.ResponseWriter, r *http.Request) {
	e, ver, data, err := s.artifact(r, artifact.ReadmeFile)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var body bytes.Buffer
	pctx := parser.NewContext()
	if err := s.markdown.Convert(data, &body, parser.WithContext(pctx)); err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render README of %s@%s", e.Slug, ver))
		return
	}

	view := readmeView{Slug: e.Slug, Version: ver, Title: e.Title, Homepage: e.Homepage, Body: template.HTML(body.String())}
	fm := meta.Get(pctx)
	if title, ok := fm["title"].(string); ok && title != "" {
		view.Title = title
	}
	if home, ok := fm["homepage"].(string); ok && home != "" {
		view.Homepage = home
	}

	var page bytes.Buffer
	if err := readmePage.Execute(&page, view); err != nil {
		s.fail(w, r, fmt.Errorf("render page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page.Bytes())
}
