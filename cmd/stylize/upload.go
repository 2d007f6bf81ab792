package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/style-studio/backend/internal/client"
)

func uploadCmd() *cobra.Command {
	var (
		styleKey string
		qr       bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file and wait for the styled result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			api, err := client.NewHTTPClient(server, nil)
			if err != nil {
				return err
			}

			file, err := client.FileFromPath(args[0])
			if err != nil {
				return err
			}

			view := client.NewTerminalView(os.Stdout, qr)
			ctrl := client.NewController(api, client.Options{})
			ctrl.Attach(view)
			defer ctrl.Detach()

			if err := ctrl.Select(file); err != nil {
				return errReported
			}
			if _, err := ctrl.SubmitSelected(cmd.Context(), styleKey); err != nil {
				return errReported
			}

			select {
			case <-view.Results():
				return nil
			case <-cmd.Context().Done():
				return fmt.Errorf("interrupted before the result was shown")
			}
		},
	}

	cmd.Flags().StringVarP(&styleKey, "style", "s", "cartoon", "style key (see 'stylize styles')")
	cmd.Flags().BoolVar(&qr, "qr", false, "print a QR code of the download link")

	return cmd
}
