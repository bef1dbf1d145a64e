package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/postindex"
	"github.com/starford/folio/internal/resume"
	pkgconfig "github.com/starford/folio/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func buildIndex(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.BuildIndex(ctx, cmd.Bool("publish"), internal.WithConfig(cfg))
	if res != nil {
		for _, f := range res.Failures {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.File, f.Err)
		}
		fmt.Printf("posts: %d changed, %d unchanged, %d skipped, %d published, %d errors\n",
			res.Stats.Changed, res.Stats.Unchanged, res.Stats.Skipped, res.Stats.Published, res.Stats.Errors)
	}
	if errors.Is(err, postindex.ErrIncomplete) {
		return cli.Exit("index built with errors", 1)
	}
	return err
}

func mergeResume(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	results, err := internal.MergeResume(ctx, internal.MergeOptions{
		Sections: cmd.StringSlice("section"),
		NoBackup: cmd.Bool("no-backup"),
		Watch:    cmd.Bool("watch"),
	}, internal.WithConfig(cfg))
	for _, r := range results {
		fmt.Printf("%s: %d fragments -> %s\n", r.Section, len(r.Files), r.Output)
	}
	return err
}

func convertImage(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return cli.Exit("image path is required", 2)
	}
	for _, path := range cmd.Args().Slice() {
		out, err := resume.ConvertImage(path)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}
	return nil
}

func upload(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	report, err := internal.Upload(ctx, cmd.String("dir"), cmd.String("root"), internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	for _, key := range report.Keys {
		fmt.Println(key)
	}
	fmt.Printf("uploaded %d files, %d bytes\n", len(report.Keys), report.Bytes)
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	internal.Version = version
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:    "folio",
		Usage:   "Portfolio and blog content service backed by versioned Markdown",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:   "build-index",
				Usage:  "Regenerate the post index and version cache",
				Action: buildIndex,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "publish",
						Usage: "Upload posts whose version changed",
					},
				},
			},
			{
				Name:  "resume",
				Usage: "Resume authoring tools",
				Commands: []*cli.Command{
					{
						Name:   "merge",
						Usage:  "Merge section fragments into section files",
						Action: mergeResume,
						Flags: []cli.Flag{
							&cli.StringSliceFlag{
								Name:    "section",
								Aliases: []string{"s"},
								Usage:   "Section to merge (repeatable, default all)",
							},
							&cli.BoolFlag{
								Name:  "watch",
								Usage: "Keep merging as fragments change",
							},
							&cli.BoolFlag{
								Name:  "no-backup",
								Usage: "Skip the backup copy before merging",
							},
						},
					},
					{
						Name:      "image",
						Usage:     "Embed images as data URLs in JSON files",
						ArgsUsage: "<file>...",
						Action:    convertImage,
					},
				},
			},
			{
				Name:   "upload",
				Usage:  "Upload a directory as new timestamped versions",
				Action: upload,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "Local directory to upload",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "root",
						Usage: "Key root to upload under (default the resume root)",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve content tools over MCP stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
