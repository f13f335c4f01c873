package main

import (
	"fmt"

	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/spf13/cobra"
)

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file]",
		Short: "Guess the format of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			_, data, err := a.readInput(path, int64(svc.Engine().MaxInputBytes()))
			if err != nil {
				return err
			}

			id, err := svc.Detect(string(data))
			if err != nil {
				return core.NewUserError(err)
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", id, format.MustLookup(id).Label)
			return nil
		},
	}
}
