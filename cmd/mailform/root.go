package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/interactive-solutions/go-mailform/internal/config"
)

type runtimeState struct {
	logger logrus.FieldLogger
	cfg    *config.Config
}

func NewRootCommand(logger logrus.FieldLogger) *cobra.Command {
	rt := &runtimeState{logger: logger}

	root := &cobra.Command{
		Use:           "mailform",
		Short:         "Manage and send templated HTML email",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			rt.cfg = cfg
			return nil
		},
	}

	root.AddCommand(
		newServeCommand(rt),
		newNamespaceCommand(rt),
	)

	return root
}
