package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Flags override file values.
	if v := cmd.String("export"); v != "" {
		cfg.Export.Path = v
	}
	if v := cmd.String("output"); v != "" {
		cfg.Output.Path = v
	}
	if v := cmd.String("format"); v != "" {
		cfg.Output.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("convert error: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunServe(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("serve error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp error: %w", err)
	}
	return nil
}

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:  "export",
			Usage: "Path to the exported archive tree",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Path to write the converted site",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: html or text",
		},
	}

	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Convert exported note archives into a browsable HTML or text tree with working note-to-note links",
		Flags: flags,
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "Run a single conversion and exit",
				Action: runConvert,
			},
			{
				Name:   "serve",
				Usage:  "Convert, serve the output over HTTP and reconvert on changes",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the corpus to MCP clients over stdio",
				Action: runMCP,
			},
		},
		Action: runConvert,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
