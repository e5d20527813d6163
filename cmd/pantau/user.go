package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage operator accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an operator account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		services, done, err := openServices()
		if err != nil {
			return err
		}
		defer done()

		user, err := services.Auth.CreateUser(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("User %s created (ID: %d)", user.Username, user.ID), jsonOutput)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Reset the password of an operator account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		services, done, err := openServices()
		if err != nil {
			return err
		}
		defer done()

		if err := services.Auth.SetPassword(cmd.Context(), args[0], password); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Password of %s updated", args[0]), jsonOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userPasswdCmd)

	for _, c := range []*cobra.Command{userAddCmd, userPasswdCmd} {
		c.Flags().String("password", "", "Password; read from stdin when set to -")
		c.MarkFlagRequired("password")
	}
}

// passwordFlag returns --password, reading the first line of stdin for "-".
func passwordFlag(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "-" {
		return password, nil
	}
	return readPassword(cmd.InOrStdin())
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password on stdin")
	}
	return password, nil
}

