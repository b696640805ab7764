// Command rollupload rolls genotype-level annotations up to the markers and
// alleles they implicate and publishes one file per output stream.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"rollupload/internal/blob"
	"rollupload/internal/check"
	"rollupload/internal/config"
	"rollupload/internal/infra/persistence"
	"rollupload/internal/infra/persistence/schema"
	"rollupload/internal/metrics"
	"rollupload/internal/platform/logger"
	"rollupload/internal/rollup"
	"rollupload/internal/source"
	"rollupload/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// exitCode carries a non-fatal exit status out of a command action.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 1 {
		args = append(args, "--help")
	}
	root := &cli.Command{
		Name:      "rollupload",
		Usage:     "Roll genotype annotations up to markers and alleles",
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			runCommand(stdout),
			checkCommand(stdout),
			schemaCommand(stdout),
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	err := root.Run(ctx, args)
	var code exitCode
	switch {
	case err == nil:
		return rollup.ExitOK
	case errors.As(err, &code):
		return int(code)
	default:
		_, _ = fmt.Fprintf(stderr, "rollupload: %v\n", err)
		return rollup.ExitFatal
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{Name: "config", Usage: "YAML configuration file", Sources: cli.EnvVars("ROLLUP_CONFIG")}
}

func runCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run one pipeline variant or all configured variants",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "variant", Required: true, Usage: "disease-marker, phenotype-marker, disease-allele, phenotype-allele or all"},
			&cli.StringFlag{Name: "output", Usage: "override the standard output key (single variant only)"},
			&cli.BoolFlag{Name: "include-non-mouse", Usage: "publish the non-mouse stream"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			variants, err := selectVariants(&cfg, c.String("variant"), c.String("output"))
			if err != nil {
				return err
			}
			if c.Bool("include-non-mouse") {
				for _, v := range variants {
					p := cfg.Pipelines[string(v)]
					p.IncludeNonMouse = true
					cfg.Pipelines[string(v)] = p
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			reports, err := runVariants(ctx, cfg, variants)
			if encErr := printJSON(stdout, reports); encErr != nil && err == nil {
				err = encErr
			}
			if err != nil {
				return err
			}
			if code := rollup.ExitCode(reports); code != rollup.ExitOK {
				return exitCode(code)
			}
			return nil
		},
	}
}

// selectVariants resolves --variant against the configuration. A single
// variant missing from the file runs with defaults when --output names its key.
func selectVariants(cfg *config.Config, name, output string) ([]domain.Variant, error) {
	if strings.EqualFold(strings.TrimSpace(name), "all") {
		if output != "" {
			return nil, fmt.Errorf("%w: --output needs a single variant", config.ErrConfig)
		}
		vs := cfg.Configured()
		if len(vs) == 0 {
			return nil, fmt.Errorf("%w: no pipelines configured", config.ErrConfig)
		}
		return vs, nil
	}
	v, err := domain.ParseVariant(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfig, err)
	}
	p, ok := cfg.Pipelines[string(v)]
	if !ok {
		p = config.PipelineDefaults(v)
	}
	if output != "" {
		p.Output = output
	}
	cfg.Pipelines[string(v)] = p
	return []domain.Variant{v}, nil
}

type env struct {
	log   *logger.Logger
	diag  *logger.Logger
	fetch *source.Fetcher
	store blob.Store
	close func()
}

func openEnv(ctx context.Context, cfg config.Config) (*env, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: logger: %v", config.ErrConfig, err)
	}
	diag := log
	if cfg.Log.Diagnostics != "" {
		if diag, err = logger.NewJSONFile(cfg.Log.Diagnostics); err != nil {
			return nil, fmt.Errorf("%w: diagnostics log: %v", config.ErrConfig, err)
		}
	}
	db, dialect, err := persistence.Open(ctx, cfg.Source.Driver, cfg.Source.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrSource, err)
	}
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: blob store: %v", config.ErrConfig, err)
	}
	return &env{
		log:   log,
		diag:  diag,
		fetch: source.New(db, dialect, log),
		store: store,
		close: func() {
			if c, ok := store.(io.Closer); ok {
				_ = c.Close()
			}
			_ = db.Close()
			diag.Sync()
			log.Sync()
		},
	}, nil
}

func runVariants(ctx context.Context, cfg config.Config, variants []domain.Variant) ([]rollup.Report, error) {
	e, err := openEnv(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer e.close()
	rec := metrics.NewPrometheus()
	engines := make([]*rollup.Engine, 0, len(variants))
	for _, v := range variants {
		p, err := cfg.Pipeline(v)
		if err != nil {
			return nil, err
		}
		eng, err := rollup.New(rollup.Options{
			Variant:     v,
			Pipeline:    p,
			Source:      e.fetch,
			Store:       e.store,
			Log:         e.log,
			Diagnostics: e.diag,
			Metrics:     rec,
		})
		if err != nil {
			return nil, err
		}
		engines = append(engines, eng)
	}
	reports, err := rollup.RunAll(ctx, engines)
	if werr := rec.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
		e.log.Warn("write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
	}
	return reports, err
}

func checkCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify a published rollup file against the source store",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "variant", Required: true},
			&cli.StringFlag{Name: "file", Usage: "blob key to verify (defaults to the variant's output)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			variants, err := selectVariants(&cfg, c.String("variant"), c.String("file"))
			if err != nil {
				return err
			}
			if len(variants) != 1 {
				return fmt.Errorf("%w: check needs a single variant", config.ErrConfig)
			}
			p := cfg.Pipelines[string(variants[0])]
			e, err := openEnv(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.close()
			_, rc, err := e.store.Get(ctx, p.Output)
			if err != nil {
				return fmt.Errorf("open %s: %w", p.Output, err)
			}
			defer func() { _ = rc.Close() }()
			res, err := check.Verify(ctx, e.fetch, p, rc)
			if err != nil {
				return err
			}
			if err := printJSON(stdout, res); err != nil {
				return err
			}
			if !res.OK() {
				return exitCode(rollup.ExitFatal)
			}
			return nil
		},
	}
}

func schemaCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Apply the source schema migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "driver", Value: "sqlite", Usage: "sqlite or postgres"},
			&cli.StringFlag{Name: "dsn", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			db, dialect, err := persistence.Open(ctx, c.String("driver"), c.String("dsn"))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			applied, err := schema.Apply(ctx, db, dialect, nil)
			if err != nil {
				return err
			}
			for _, name := range applied {
				if _, err := fmt.Fprintf(stdout, "applied %s\n", name); err != nil {
					return err
				}
			}
			version, err := schema.Version(ctx, db, dialect)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout, "schema at version %d\n", version)
			return err
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
