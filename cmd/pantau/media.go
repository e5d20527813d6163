package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage media types of staff reports",
}

var mediaAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a media type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, done, err := openServices()
		if err != nil {
			return err
		}
		defer done()

		m, err := services.Media.Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Media type %s added (ID: %d)", m.Name, m.ID), jsonOutput)
		return nil
	},
}

var mediaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List media types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, done, err := openServices()
		if err != nil {
			return err
		}
		defer done()

		media, err := services.Media.List(cmd.Context())
		if err != nil {
			return err
		}
		printMediaTypes(cmd.OutOrStdout(), media, jsonOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(mediaAddCmd)
	mediaCmd.AddCommand(mediaListCmd)
}
