package main

import (
	"errors"

	"github.com/spf13/cobra"

	"doc-rater/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the rubric reply cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached rubric reply",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	if cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is not set; nothing to purge")
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Purge(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("purged %d cached replies\n", n)
	return nil
}
