package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dukex/scriptorium/pkg/services"
	"github.com/dukex/scriptorium/pkg/tree"
	cli "github.com/urfave/cli/v3"
)

var errWorkflowIDRequired = errors.New("workflow id is required")

func workflowsCommand() *cli.Command {
	return &cli.Command{
		Name:    "workflows",
		Aliases: []string{"wf"},
		Usage:   "Manage stored workflows",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List stored workflows, most recently updated first",
				Action: withRuntime(func(ctx context.Context, command *cli.Command, rt *runtime) error {
					return listWorkflows(ctx, command.Root().Writer, rt.workflows)
				}),
			},
			{
				Name:      "show",
				Usage:     "Print a workflow as a tree",
				ArgsUsage: "<workflow-id>",
				Action: withRuntime(func(ctx context.Context, command *cli.Command, rt *runtime) error {
					id := command.Args().First()
					if id == "" {
						return errWorkflowIDRequired
					}

					return showWorkflow(ctx, command.Root().Writer, rt.workflows, id)
				}),
			},
			{
				Name:      "export",
				Usage:     "Write a workflow as nested JSON",
				ArgsUsage: "<workflow-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "File to write to instead of standard output",
					},
				},
				Action: withRuntime(func(ctx context.Context, command *cli.Command, rt *runtime) error {
					id := command.Args().First()
					if id == "" {
						return errWorkflowIDRequired
					}

					out := command.Root().Writer

					if path := command.String("output"); path != "" {
						file, err := os.Create(path)
						if err != nil {
							return err
						}
						defer file.Close()

						out = file
					}

					return exportWorkflow(ctx, out, rt.workflows, id)
				}),
			},
			{
				Name:      "import",
				Usage:     "Store a workflow from an exported JSON file",
				ArgsUsage: "<file|->",
				Action: withRuntime(func(ctx context.Context, command *cli.Command, rt *runtime) error {
					data, err := readInput(command.Args().First(), os.Stdin)
					if err != nil {
						return err
					}

					doc, err := rt.workflows.Import(ctx, data)
					if err != nil {
						return err
					}

					_, err = fmt.Fprintf(command.Root().Writer, "Imported %q as %s (%d nodes)\n", doc.Name, doc.ID, doc.Forest.Len())

					return err
				}),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a stored workflow",
				ArgsUsage: "<workflow-id>",
				Action: withRuntime(func(ctx context.Context, command *cli.Command, rt *runtime) error {
					id := command.Args().First()
					if id == "" {
						return errWorkflowIDRequired
					}

					if err := rt.workflows.Delete(ctx, id); err != nil {
						return err
					}

					_, err := fmt.Fprintf(command.Root().Writer, "Deleted %s\n", id)

					return err
				}),
			},
		},
	}
}

func listWorkflows(ctx context.Context, w io.Writer, workflows *services.Workflow) error {
	docs, err := workflows.List(ctx)
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "No workflows stored.")

		return err
	}

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, []string{
			doc.ID,
			doc.Name,
			strconv.Itoa(doc.Forest.Len()),
			doc.UpdatedAt.Local().Format(time.DateTime),
		})
	}

	_, err = fmt.Fprintln(w, renderTable(
		[]string{"ID", "Name", "Nodes", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	return err
}

func showWorkflow(ctx context.Context, w io.Writer, workflows *services.Workflow, id string) error {
	doc, err := workflows.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s (%s)\n", doc.Name, doc.ID); err != nil {
		return err
	}

	if doc.Description != "" {
		if _, err := fmt.Fprintln(w, doc.Description); err != nil {
			return err
		}
	}

	if doc.Forest.IsEmpty() {
		_, err := fmt.Fprintln(w, "(empty workflow)")

		return err
	}

	_, err = fmt.Fprintln(w, renderTree(tree.Nest(&doc.Forest)))

	return err
}

func exportWorkflow(ctx context.Context, w io.Writer, workflows *services.Workflow, id string) error {
	export, err := workflows.Export(ctx, id)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(export)
}

// readInput reads a named file, or stdin when path is "-" or empty.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}
