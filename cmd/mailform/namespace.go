package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interactive-solutions/go-mailform/internal/config"
)

func newNamespaceCommand(rt *runtimeState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "namespace",
		Aliases: []string{"database"},
		Short:   "Manage template namespaces",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List namespaces and their template count",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				repo, closeRepo, err := config.NewTemplateRepository(rt.cfg)
				if err != nil {
					return err
				}
				defer closeRepo()

				namespaces, err := repo.ListNamespaces(cmd.Context())
				if err != nil {
					return err
				}

				all, err := repo.ListAll(cmd.Context())
				if err != nil {
					return err
				}

				for _, namespace := range namespaces {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", namespace, len(all[namespace]))
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an empty namespace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, closeRepo, err := config.NewTemplateRepository(rt.cfg)
				if err != nil {
					return err
				}
				defer closeRepo()

				if err := repo.CreateNamespace(cmd.Context(), args[0]); err != nil {
					return err
				}

				rt.logger.WithField("namespace", args[0]).Info("namespace created")
				return nil
			},
		},
	)

	return cmd
}
