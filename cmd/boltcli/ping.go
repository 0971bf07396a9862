package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alxayo/boltgo/internal/bolt/address"
	"github.com/alxayo/boltgo/internal/bolt/pool"
)

func newPingCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Acquire and release one connection to measure round-trip time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(flags)
			if err != nil {
				return err
			}
			addr, err := address.Parse(flags.uri)
			if err != nil {
				return err
			}

			p := pool.New(cfg, address.DefaultResolver{}, newConnector(cfg))
			defer p.Close()

			start := time.Now()
			c, err := p.Acquire(context.Background(), addr)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			info := c.ServerInfo()
			p.Release(c)

			fmt.Printf("ok: %s (%s) in %s\n", info.Address, info.Agent, elapsed)
			return nil
		},
	}
}
