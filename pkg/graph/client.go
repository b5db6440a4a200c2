// Package graph writes match graphs to Memgraph/Neo4j over Bolt for visual
// inspection of clusters.
package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Config holds the Bolt endpoint of the graph database. Database is only
// honoured by Neo4j; Memgraph ignores it.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Database    string
	MaxPoolSize int
}

func (c Config) uri() string {
	return fmt.Sprintf("bolt://%s:%d", c.Host, c.Port)
}

// Client holds one driver per process. Every run export and cluster
// lookup opens its own short session.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   ectologger.Logger
}

// NewClient connects to the graph database and ensures the run indexes
func NewClient(ctx context.Context, cfg Config, logger ectologger.Logger) (*Client, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.uri(), auth, func(c *config.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}

	c := &Client{driver: driver, database: cfg.Database, logger: logger}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph database %s unreachable: %w", cfg.uri(), err)
	}
	if err := c.ensureIndexes(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	logger.WithContext(ctx).WithField("uri", cfg.uri()).Info("Connected to graph database")
	return c, nil
}

// Exports delete and look up nodes by run, so each exported label is
// indexed on run_id.
func (c *Client) ensureIndexes(ctx context.Context) error {
	return c.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) error {
		for _, label := range []string{LabelRecord, LabelProductNode, LabelCluster} {
			if _, err := tx.Run(ctx, fmt.Sprintf("CREATE INDEX ON :%s(run_id)", label), nil); err != nil {
				return fmt.Errorf("failed to index %s: %w", label, err)
			}
		}
		return nil
	})
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// VerifyConnectivity is the health check of the graph database
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Client) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: c.database})
}

func (c *Client) write(ctx context.Context, work func(ctx context.Context, tx neo4j.ManagedTransaction) error) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.write")
	defer span.End()

	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(ctx, tx)
	})
	return err
}

// readStrings returns column key of every row of cypher
func (c *Client) readStrings(ctx context.Context, cypher string, params map[string]any, key string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.readStrings")
	defer span.End()

	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(records))
		for _, r := range records {
			if v, _, err := neo4j.GetRecordValue[string](r, key); err == nil {
				values = append(values, v)
			}
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}
