package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dukex/scriptorium/pkg/cmd"
	"github.com/dukex/scriptorium/pkg/log"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/registry"
	cli "github.com/urfave/cli/v3"
)

func actionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "actions",
		Aliases: []string{"a"},
		Usage:   "Browse the action catalogue",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the registered actions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "category",
						Aliases: []string{"c"},
						Usage:   "Only list actions of this category",
					},
				},
				Action: func(_ context.Context, command *cli.Command) error {
					reg := cmd.NewRegistry(log.WithModule("cli"))

					return listActions(command.Root().Writer, reg, models.Category(command.String("category")))
				},
			},
		},
	}
}

func listActions(w io.Writer, reg *registry.Registry, category models.Category) error {
	actions := reg.ListActions()

	if category != "" {
		if !category.Valid() {
			return fmt.Errorf("unknown category %q", category)
		}

		actions = reg.ListByCategory(category)
	}

	rows := make([][]string, 0, len(actions))
	for _, action := range actions {
		rows = append(rows, []string{action.ID, action.Label, string(action.Category), action.Description})
	}

	_, err := fmt.Fprintln(w, renderTable([]string{"ID", "Label", "Category", "Description"}, rows, nil))

	return err
}
