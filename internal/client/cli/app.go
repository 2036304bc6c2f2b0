package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/twosync/internal/client/archive"
	"github.com/dmitrijs2005/twosync/internal/client/client"
	"github.com/dmitrijs2005/twosync/internal/client/config"
	"github.com/dmitrijs2005/twosync/internal/client/indexer/openaiapi"
	"github.com/dmitrijs2005/twosync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/twosync/internal/client/services"
	"github.com/dmitrijs2005/twosync/internal/filex"
	"github.com/dmitrijs2005/twosync/internal/logging"
	"github.com/schollz/progressbar/v3"
)

// App is the composition root: one database handle and one instance of each
// service per process.
type App struct {
	config *config.Config
	db     *sql.DB
	log    logging.Logger

	creds services.CredentialStore
	cache services.CacheService
	index services.IndexService

	out    io.Writer
	errOut io.Writer
	reader *bufio.Reader

	bar *progressbar.ProgressBar
}

// NewApp opens the cache database and builds the services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	a := &App{
		config: c,
		db:     db,
		log:    log,
		out:    os.Stdout,
		errOut: os.Stderr,
		reader: bufio.NewReader(os.Stdin),
	}

	api := client.NewHTTPClient(c.ExportEndpoint, c.RequestTimeout)
	a.creds = services.NewCredentialStore(db, services.Credentials{
		OpenAIKey:  c.OpenAIKey,
		TwosUserID: c.TwosUserID,
		TwosToken:  c.TwosToken,
	})
	a.cache = services.NewCacheService(api, db, log)

	opts := []services.IndexOption{services.WithUploadProgress(a.uploadProgress)}
	if c.Archive.Bucket != "" {
		arch, err := archive.NewS3(ctx, archive.Options{
			Bucket:    c.Archive.Bucket,
			Region:    c.Archive.Region,
			Endpoint:  c.Archive.Endpoint,
			AccessKey: c.Archive.AccessKey,
			SecretKey: c.Archive.SecretKey,
			Prefix:    c.Archive.Prefix,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("chunk archive: %w", err)
		}
		opts = append(opts, services.WithArchiver(arch))
	}
	a.index = services.NewIndexService(api, db, a.creds, openaiapi.Factory(c.OpenAIBaseURL), log, opts...)

	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) metadata() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// uploadProgress drives the progress bar of `index`.
func (a *App) uploadProgress(done, total int) {
	if a.bar == nil {
		a.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(a.errOut),
			progressbar.OptionSetDescription("Uploading chunks"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = a.bar.Set(done)
	if done == total {
		_ = a.bar.Finish()
		a.bar = nil
	}
}
