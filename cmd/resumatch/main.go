// Command resumatch indexes applicant documents and serves hybrid search and
// similarity checks over them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/resumatch/internal/adapters/driving/cli"
	"github.com/custodia-labs/resumatch/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	// Secrets may live in a .env file next to the working directory.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetOpener(openServices)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openServices(ctx context.Context, dataDir string) (*cli.Services, func() error, error) {
	a, err := app.New(ctx, app.Options{DataDir: dataDir})
	if err != nil {
		return nil, nil, err
	}

	return &cli.Services{
		Search:      a.Search,
		Similarity:  a.Similarity,
		Index:       a.Indexer,
		Settings:    a.Settings,
		Documents:   a.Documents,
		Reindex:     a.Reindex,
		WatchConfig: a.WatchConfig,
	}, a.Close, nil
}
