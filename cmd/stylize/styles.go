package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/style-studio/backend/internal/client"
)

func stylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the styles the server offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			api, err := client.NewHTTPClient(server, nil)
			if err != nil {
				return err
			}

			styles, def, err := api.Styles(cmd.Context())
			if err != nil {
				return err
			}

			for _, s := range styles {
				marker := " "
				if s.Key == def {
					marker = "*"
				}
				fmt.Printf("%s %-14s %s\n", marker, s.Key, s.Label)
			}
			return nil
		},
	}
}
