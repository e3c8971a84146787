// Package cli provides the cobra commands of the resumatch binary. Commands
// translate flags into calls on the driving ports and print the envelopes.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driving"
	"github.com/custodia-labs/resumatch/internal/logger"
)

// skipServicesAnnotation marks commands that run without opening the stores.
const skipServicesAnnotation = "resumatch/skip-services"

var (
	version = "dev"
	verbose bool
	dataDir string
)

// DocumentSaver stores documents before they are indexed.
type DocumentSaver interface {
	Save(ctx context.Context, doc *domain.Document) error
}

// Reindexer runs the periodic full reindex of the long-running server.
type Reindexer interface {
	driving.ReindexStatus
	Start(ctx context.Context) error
	Stop() error
}

// Services are the ports the commands call. Any field may be nil; commands
// that need a missing one fail with "<name> service not configured".
type Services struct {
	Search     driving.SearchService
	Similarity driving.SimilarityService
	Index      driving.IndexService
	Settings   driving.SettingsService
	Documents  DocumentSaver
	Reindex    Reindexer

	// WatchConfig starts hot reload of engine settings until ctx is done.
	WatchConfig func(ctx context.Context) error
}

// Opener builds the services for a data directory and returns a function
// releasing them.
type Opener func(ctx context.Context, dataDir string) (*Services, func() error, error)

// Service ports used by commands.
var (
	searchService     driving.SearchService
	similarityService driving.SimilarityService
	indexService      driving.IndexService
	settingsService   driving.SettingsService
	documentSaver     DocumentSaver
	reindexer         Reindexer
	watchConfig       func(ctx context.Context) error
)

var (
	opener        Opener
	closeServices func() error
)

var rootCmd = &cobra.Command{
	Use:   "resumatch",
	Short: "Hybrid search and similarity checks for applicant documents",
	Long: `resumatch indexes applicant documents (resumes, cover letters, portfolios)
into a keyword index and a vector index, ranks them by a weighted fusion of
both, and flags documents that are suspiciously similar to each other.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: openServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.resumatch)")
}

// SetOpener registers how commands obtain their services.
func SetOpener(o Opener) {
	opener = o
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if closeServices != nil {
			if err := closeServices(); err != nil {
				logger.Warn("closing stores: %v", err)
			}
			closeServices = nil
		}
	}()

	return rootCmd.ExecuteContext(ctx)
}

func openServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if opener == nil || cmd.Annotations[skipServicesAnnotation] == "true" || closeServices != nil {
		return nil
	}

	svc, closeFn, err := opener(cmd.Context(), dataDir)
	if err != nil {
		return err
	}
	setServices(svc)
	closeServices = closeFn
	return nil
}

func setServices(svc *Services) {
	if svc == nil {
		svc = &Services{}
	}
	searchService = svc.Search
	similarityService = svc.Similarity
	indexService = svc.Index
	settingsService = svc.Settings
	documentSaver = svc.Documents
	reindexer = svc.Reindex
	watchConfig = svc.WatchConfig
}
