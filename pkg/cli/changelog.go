package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/cli/config"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdChangelog() *cli.Command {
	return &cli.Command{
		Name:  "changelog",
		Usage: "Edit changelog files in place",
		Commands: []*cli.Command{
			cmdChangelogInsert(),
			cmdChangelogUpdate(),
		},
	}
}

func cmdChangelogInsert() *cli.Command {
	var file, anchor, text string

	return &cli.Command{
		Name:  "insert",
		Usage: "Insert text after every line equal to the anchor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Usage:       "File to edit",
				Required:    true,
				Destination: &file,
			},
			&cli.StringFlag{
				Name:        "anchor",
				Usage:       "Line content (ignoring surrounding spaces) after which text is inserted",
				Required:    true,
				Destination: &anchor,
			},
			&cli.StringFlag{
				Name:        "text",
				Usage:       "Text to insert",
				Required:    true,
				Destination: &text,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}

			count, err := usecase.InsertAfter(file, anchor, text)
			if err != nil {
				return err
			}
			if count == 0 {
				ctxlog.From(ctx).Warn("Anchor not found, file unchanged", "file", file, "anchor", anchor)
				return nil
			}
			ctxlog.From(ctx).Info("Inserted text", "file", file, "count", count)
			return nil
		},
	}
}

func cmdChangelogUpdate() *cli.Command {
	var (
		releaseCfg config.Release
		target     model.ChangelogTarget
	)

	flags := append(releaseCfg.Flags(),
		&cli.StringFlag{
			Name:        "file",
			Usage:       "Changelog to update",
			Value:       model.DefaultChangelog,
			Destination: &target.Path,
		},
		&cli.StringFlag{
			Name:        "title-anchor",
			Usage:       "Underline of the changelog title",
			Required:    true,
			Destination: &target.TitleAnchor,
		},
		&cli.StringFlag{
			Name:        "prefix",
			Usage:       "Prefix of every entry, e.g. \"iOS: \"",
			Destination: &target.Prefix,
		},
		&cli.StringFlag{
			Name:        "placeholder",
			Usage:       "Temporary marker line",
			Value:       model.DefaultPlaceholder,
			Destination: &target.Placeholder,
		},
	)

	return &cli.Command{
		Name:  "update",
		Usage: "Add a version section under the changelog title",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			release, err := releaseCfg.Release()
			if err != nil {
				return err
			}
			if len(release.Entries()) == 0 {
				return goerr.New("changelog entries are required", goerr.V("version", release.Version))
			}

			if err := usecase.UpdateChangelog(target.Path, target, release); err != nil {
				return err
			}
			ctxlog.From(ctx).Info("Updated changelog", "file", target.Path, "version", release.Version)
			return nil
		},
	}
}
