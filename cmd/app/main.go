package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starford/raido/internal"
	pkgconfig "github.com/starford/raido/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// loadConfig builds the effective configuration: defaults, then the
// optional config file, then command line flags on top.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	if path := cmd.String("config"); path != "" {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cmd.IsSet("root") {
		cfg.Vault.Path = cmd.String("root")
	}
	if cmd.IsSet("pattern") {
		cfg.Vault.Pattern = cmd.String("pattern")
	}
	if cmd.IsSet("field") {
		cfg.Rewrite.Field = cmd.String("field")
	}
	if cmd.IsSet("base-url") {
		cfg.Rewrite.BaseURL = cmd.String("base-url")
	}
	if cmd.IsSet("rules") {
		cfg.Rewrite.Rules = cmd.String("rules")
	}
	if cmd.IsSet("backup") {
		cfg.Rewrite.Backup = cmd.Bool("backup")
	}
	if cmd.IsSet("normalize-slugs") {
		cfg.Rewrite.NormalizeSlugs = cmd.Bool("normalize-slugs")
	}
	if cmd.IsSet("journal") {
		cfg.Journal.Path = cmd.String("journal")
	}

	// A rule source flag replaces, not augments, a source from the
	// config file. Passing both flags is still rejected by Validate.
	if cmd.IsSet("base-url") && !cmd.IsSet("rules") {
		cfg.Rewrite.Rules = ""
	}
	if cmd.IsSet("rules") && !cmd.IsSet("base-url") {
		cfg.Rewrite.BaseURL = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func vaultFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "root",
			Aliases:     []string{"r"},
			Usage:       "Vault root directory",
			DefaultText: ".",
			Value:       ".",
		},
		&cli.StringFlag{
			Name:        "pattern",
			Aliases:     []string{"p"},
			Usage:       "Glob selecting the documents to process",
			DefaultText: "*.md",
			Value:       "*.md",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file",
			Sources: cli.EnvVars("RAIDO_CONFIG"),
		},
	}
}

func ruleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Base URL for the built-in redirect rule",
		},
		&cli.StringFlag{
			Name:        "field",
			Usage:       "Front matter field the built-in rule inserts",
			DefaultText: "redirect_to",
			Value:       "redirect_to",
		},
		&cli.StringFlag{
			Name:  "rules",
			Usage: "YAML rule file, an alternative to --base-url",
		},
		&cli.BoolFlag{
			Name:  "backup",
			Usage: "Copy each original to <path>.bak before overwriting",
		},
		&cli.BoolFlag{
			Name:  "normalize-slugs",
			Usage: "Normalize derived slugs before building field lines",
		},
		&cli.StringFlag{
			Name:  "journal",
			Usage: "SQLite database recording run history",
		},
	}
}

func batchAction(dryRun bool) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return internal.RunBatch(ctx, dryRun, cmd.Bool("diff"), internal.WithConfig(cfg))
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Batch front matter rewriter for Markdown vaults",
		Commands: []*cli.Command{
			{
				Name:   "apply",
				Usage:  "Insert missing front matter fields across the vault",
				Flags:  append(vaultFlags(), ruleFlags()...),
				Action: batchAction(false),
			},
			{
				Name:  "plan",
				Usage: "Report what apply would change without writing anything",
				Flags: append(append(vaultFlags(), ruleFlags()...),
					&cli.BoolFlag{
						Name:  "diff",
						Usage: "Print the lines each document would receive",
					}),
				Action: batchAction(true),
			},
			{
				Name:  "check",
				Usage: "Inspect the vault: YAML validity and field presence census",
				Flags: append(vaultFlags(),
					&cli.StringFlag{
						Name:        "field",
						Usage:       "Front matter field to count",
						DefaultText: "redirect_to",
						Value:       "redirect_to",
					}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunCheck(ctx, internal.WithConfig(cfg))
				},
			},
			{
				Name:  "watch",
				Usage: "Rewrite matching documents continuously as they change",
				Flags: append(append(vaultFlags(), ruleFlags()...),
					&cli.BoolFlag{
						Name:  "http",
						Usage: "Serve the status API and SSE event stream",
					}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunWatch(ctx, cmd.Bool("http"), internal.WithConfig(cfg))
				},
			},
			{
				Name:  "history",
				Usage: "Print recent runs from the journal",
				Flags: append(vaultFlags(),
					&cli.StringFlag{
						Name:  "journal",
						Usage: "SQLite database recording run history",
					},
					&cli.StringFlag{
						Name:  "run",
						Usage: "Print the per-file outcomes of one run",
					},
					&cli.IntFlag{
						Name:        "limit",
						Usage:       "Maximum runs to list",
						DefaultText: "20",
						Value:       20,
					}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunHistory(ctx, cmd.String("run"), int(cmd.Int("limit")),
						internal.WithConfig(cfg))
				},
			},
			{
				Name:      "preview",
				Usage:     "Render one document's Markdown body to HTML",
				ArgsUsage: "<path>",
				Flags:     vaultFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("usage: raido preview <path>")
					}
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunPreview(ctx, path, internal.WithConfig(cfg))
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the vault tools over MCP on stdio",
				Flags: append(vaultFlags(), ruleFlags()...),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(ctx, internal.WithConfig(cfg))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
