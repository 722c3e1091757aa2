package runner

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/builtin"
	"github.com/abdul-hamid-achik/hitblock/packages/core/compiler"
	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
	"github.com/abdul-hamid-achik/hitblock/packages/core/parser"
	"github.com/abdul-hamid-achik/hitblock/packages/http"
	"github.com/abdul-hamid-achik/hitblock/packages/template"
	"github.com/hashicorp/go-multierror"
)

type Config struct {
	// UserAgent replaces the default User-Agent seeded before the preamble.
	UserAgent string
	// Headers are seeded after User-Agent; the document can override them.
	Headers         map[string]string
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	FollowRedirects bool
	Prompts         parser.Prompts
	Verbose         bool
	// Logger receives progress lines when Verbose is set.
	Logger *log.Logger
}

type Runner struct {
	client *http.Client
	funcs  *builtin.Registry
	config *Config
	logger *log.Logger
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose && cfg.Logger != nil {
		logger = cfg.Logger
	}

	clientOpts := []http.ClientOption{
		http.WithFollowRedirects(cfg.FollowRedirects),
		http.WithLogger(logger),
	}
	if cfg.ConnectTimeout > 0 {
		clientOpts = append(clientOpts, http.WithConnectTimeout(cfg.ConnectTimeout))
	}
	if cfg.ReadTimeout > 0 {
		clientOpts = append(clientOpts, http.WithReadTimeout(cfg.ReadTimeout))
	}

	return &Runner{
		client: http.NewClient(clientOpts...),
		funcs:  builtin.NewRegistry(),
		config: cfg,
		logger: logger,
	}
}

// Insertion is rendered template output to be placed after line After,
// preceded by a blank line.
type Insertion struct {
	After    int
	Template string
	Lines    []string
}

type RunResult struct {
	// File is the document path, empty for in-memory documents.
	File       string
	Block      *parser.Block
	Request    *compiler.CompiledRequest
	Result     *http.Result
	Insertions []Insertion
	// TemplateErrors is a *multierror.Error, or nil when every template
	// rendered.
	TemplateErrors error
	Duration       time.Duration
}

// Run executes the block under doc's cursor.
func (r *Runner) Run(ctx context.Context, doc *Document) (*RunResult, error) {
	start := time.Now()

	compiled, err := compiler.Compile(doc.Lines, doc.Cursor, compiler.Options{
		Prompts: r.config.Prompts,
		Headers: r.baseHeaders(),
		BaseDir: doc.BaseDir(),
	})
	if err != nil {
		return nil, err
	}

	req := compiled.Request
	r.logger.Printf("line %d: %s %s", compiled.Block.Start+1, req.Method, req.URL)

	res, err := r.client.Do(ctx, req, http.NewCookieJar())
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		File:    doc.Path,
		Block:   compiled.Block,
		Request: req,
		Result:  res,
	}
	result.Insertions, result.TemplateErrors = r.render(req, compiled.Templates, res)
	result.Duration = time.Since(start)

	return result, nil
}

// RunFile loads path and runs the block at the one-based line.
func (r *Runner) RunFile(ctx context.Context, path string, line int) (*RunResult, *Document, error) {
	doc, err := LoadDocument(path, line)
	if err != nil {
		return nil, nil, err
	}
	result, err := r.Run(ctx, doc)
	if err != nil {
		return nil, doc, err
	}
	return result, doc, nil
}

func (r *Runner) baseHeaders() *headers.HeaderSet {
	h := headers.New()
	ua := r.config.UserAgent
	if ua == "" {
		ua = parser.DefaultUserAgent
	}
	h.Set("User-Agent", ua)
	h.Merge(r.config.Headers)
	return h
}

func (r *Runner) render(req *compiler.CompiledRequest, templates map[string]string, res *http.Result) ([]Insertion, error) {
	if len(req.Templates) == 0 {
		return nil, nil
	}

	tctx := template.NewContext(res, r.funcs)
	after := req.InsertAfter

	var errs *multierror.Error
	insertions := make([]Insertion, 0, len(req.Templates))

	for _, name := range req.Templates {
		var lines []string

		tpl, ok := templates[name]
		if !ok {
			lines = []string{fmt.Sprintf("ERROR: template %s not found", name)}
			errs = multierror.Append(errs, fmt.Errorf("template %s not found", name))
		} else if out, err := template.Expand(tpl, tctx); err != nil {
			lines = []string{"ERROR: " + err.Error()}
			errs = multierror.Append(errs, fmt.Errorf("template %s: %w", name, err))
		} else {
			lines = SplitLines(out)
		}

		insertions = append(insertions, Insertion{After: after, Template: name, Lines: lines})
		after += 1 + len(lines)
	}

	return insertions, errs.ErrorOrNil()
}

// Apply returns lines with every insertion placed, leaving lines untouched.
func (r *RunResult) Apply(lines []string) []string {
	out := append([]string(nil), lines...)
	for _, ins := range r.Insertions {
		at := ins.After + 1
		if at > len(out) {
			at = len(out)
		}
		block := append([]string{""}, ins.Lines...)
		out = append(out[:at], append(block, out[at:]...)...)
	}
	return out
}
