package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alxayo/boltgo/internal/bolt/address"
	"github.com/alxayo/boltgo/internal/bolt/conn"
	"github.com/alxayo/boltgo/internal/bolt/pool"
)

func newRunCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <cypher>",
		Short: "Run one autocommit Cypher statement and print the records",
		Args:  cobra.ExactArgs(1),
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

			ctx := context.Background()
			c, err := p.Acquire(ctx, addr)
			if err != nil {
				return err
			}
			defer p.Release(c)

			return runAutocommit(c, args[0])
		},
	}
	return cmd
}

// runAutocommit pipelines RUN followed immediately by PULL_ALL, printing
// each record as it arrives and the final summary metadata once the whole
// exchange completes.
func runAutocommit(c *conn.Connection, statement string) error {
	if err := c.Run(statement, nil, conn.TxOptions{}, conn.Handlers{
		OnFailure: func(metadata map[string]any) { fmt.Println("FAILURE:", metadata["message"]) },
	}); err != nil {
		return err
	}
	if err := c.PullAll(conn.Handlers{
		OnRecords: func(details []any) { fmt.Println(details) },
		OnSuccess: func(metadata map[string]any) { fmt.Println("summary:", metadata) },
		OnFailure: func(metadata map[string]any) { fmt.Println("FAILURE:", metadata["message"]) },
	}); err != nil {
		return err
	}
	return c.Sync()
}
