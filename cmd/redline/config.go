package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/redline/internal/api"
	"github.com/jackzampolin/redline/internal/config"
	"github.com/jackzampolin/redline/internal/home"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Local configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		if h.ConfigExists() {
			return fmt.Errorf("config file already exists at %s", h.ConfigPath())
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", h.ConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		return api.Output(cfgMgr.Get())
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
