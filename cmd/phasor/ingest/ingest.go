// Package ingestcmder provides the ingest command for distilling documents
// into stored, phase-tagged concepts.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/cmd/phasor/setup"
	"github.com/phasorlabs/phasor/pkg/cliui"
	"github.com/phasorlabs/phasor/pkg/config"
	"github.com/phasorlabs/phasor/pkg/ingest"
	"github.com/phasorlabs/phasor/pkg/logger"
)

type ingestCommander struct {
	files []string
	split bool

	ownerID   string
	ownerName string
	backend   string
	sqlite    string
	postgres  string
	logDir    string
	workers   uint

	extractProvider string
	extractTarget   string
	streamProvider  string
	streamBrokers   string
	streamTopic     string

	configDir string
	debug     bool

	v      *viper.Viper
	logger *zap.Logger
}

const ingestLongDesc string = `Ingest a batch of documents into phase-indexed memory.

Each file is validated, its concepts extracted, deduplicated across the
batch with full provenance, tagged with a deterministic phase, and stored
in the memory store under the owner. The whole batch is recorded as a
single session frame carrying every concept plus a batch alignment summary
(mean phase, variance, coverage, pairwise coherence).

Validation is all-or-nothing: one bad file rejects the batch. Extraction
failures are per-file and do not abort the batch.

File kinds are inferred from the extension: .md is markdown, .txt is text,
anything else defaults to text (use transcripts with a .transcript suffix).

With --split, each file becomes its own batch and the batches are processed
by a worker pool (--workers, config ingest.workers). Batches for the same
owner are still serialized.

Examples:
  phasor ingest notes.md paper.txt
  phasor ingest --owner lab-7 session.transcript
  phasor ingest *.md --split --workers 4
  phasor ingest *.md --extract-provider remote --extract-target http://localhost:9090`

const ingestShortDesc string = "Ingest documents into phase-indexed memory"

var ingestFlagKeys = []string{
	config.FlagOwnerID,
	config.FlagOwnerName,
	config.FlagStorageBackend,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagLogDir,
	config.FlagIngestWorkers,
	config.FlagExtractProvider,
	config.FlagExtractTarget,
	config.FlagStreamProvider,
	config.FlagStreamBrokers,
	config.FlagStreamTopic,
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet, ingestFlagKeys)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.files = args

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	fs := config.DefaultFlagSet
	config.AddStringFlag(cmd, fs, config.FlagOwnerID, &cmder.ownerID)
	config.AddStringFlag(cmd, fs, config.FlagOwnerName, &cmder.ownerName)
	config.AddStringFlag(cmd, fs, config.FlagStorageBackend, &cmder.backend)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlite)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &cmder.postgres)
	config.AddStringFlag(cmd, fs, config.FlagLogDir, &cmder.logDir)
	config.AddUintFlag(cmd, fs, config.FlagIngestWorkers, &cmder.workers)
	config.AddStringFlag(cmd, fs, config.FlagExtractProvider, &cmder.extractProvider)
	cmd.Flags().BoolVar(&cmder.split, "split", false, "ingest each file as its own batch via the worker pool")
	config.AddStringFlag(cmd, fs, config.FlagExtractTarget, &cmder.extractTarget)
	config.AddStringFlag(cmd, fs, config.FlagStreamProvider, &cmder.streamProvider)
	config.AddStringFlag(cmd, fs, config.FlagStreamBrokers, &cmder.streamBrokers)
	config.AddStringFlag(cmd, fs, config.FlagStreamTopic, &cmder.streamTopic)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ownerID := c.v.GetString("owner.id")
	if ownerID == "" {
		return fmt.Errorf("no owner configured: pass --owner or set owner.id in config")
	}
	ownerName := c.v.GetString("owner.name")
	if ownerName == "" {
		ownerName = ownerID
	}

	items, err := loadItems(c.files)
	if err != nil {
		return err
	}

	store, err := setup.OpenStore(ctx, c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer func() { _ = store.Close() }()

	log, err := setup.OpenLog(c.v, c.configDir, c.logger)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}

	extractor, err := setup.NewExtractor(c.v)
	if err != nil {
		return err
	}

	publisher, err := setup.NewPublisher(c.v, c.logger)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	pipeline, err := ingest.NewPipeline(&ingest.Config{
		Log:       log,
		Store:     store,
		Extractor: extractor,
		Publisher: publisher,
		Limits: ingest.Limits{
			MaxItems:      c.v.GetInt("ingest.max_items"),
			MaxItemBytes:  c.v.GetInt("ingest.max_item_bytes"),
			MaxBatchBytes: c.v.GetInt("ingest.max_batch_bytes"),
		},
		Logger: c.logger,
	})
	if err != nil {
		return err
	}

	if c.split {
		return c.runSplit(pipeline, ownerID, ownerName, items)
	}

	var result *ingest.Result
	err = cliui.Step(os.Stdout, fmt.Sprintf("ingesting %d items", len(items)), func() error {
		var perr error
		result, perr = pipeline.ProcessBatch(ctx, ingest.BatchRequest{
			OwnerID:   ownerID,
			OwnerName: ownerName,
			Items:     items,
		})
		return perr
	})
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

// runSplit processes each item as its own batch through the worker pool.
// Batches for the same owner are serialized by the pool, so split mode
// trades one big frame for one frame per file.
func (c *ingestCommander) runSplit(pipeline *ingest.Pipeline, ownerID, ownerName string, items []ingest.Item) error {
	pool, err := ingest.NewPool(&ingest.PoolConfig{
		Pipeline:   pipeline,
		NumWorkers: c.v.GetUint("ingest.workers"),
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	type outcome struct {
		name   string
		result *ingest.Result
		err    error
	}
	outcomes := make([]outcome, len(items))

	var wg sync.WaitGroup
	for i := range items {
		item := items[i]
		wg.Add(1)
		queued := pool.Enqueue(ingest.Job{
			Request: ingest.BatchRequest{
				OwnerID:   ownerID,
				OwnerName: ownerName,
				Items:     []ingest.Item{item},
			},
			Done: func(r *ingest.Result, err error) {
				outcomes[i] = outcome{name: item.Name, result: r, err: err}
				wg.Done()
			},
		})
		if !queued {
			outcomes[i] = outcome{name: item.Name, err: fmt.Errorf("ingestion queue full")}
			wg.Done()
		}
	}
	wg.Wait()
	pool.Close()

	for _, o := range outcomes {
		if o.err != nil {
			fmt.Printf("  %s %s  %s\n", cliui.FailMark, o.name, cliui.DimStyle.Render(o.err.Error()))
			continue
		}
		printResult(o.result)
	}
	return nil
}

// loadItems reads each file into a batch item, inferring its kind from the
// file extension.
func loadItems(files []string) ([]ingest.Item, error) {
	items := make([]ingest.Item, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		kind := ingest.KindText
		switch strings.ToLower(filepath.Ext(file)) {
		case ".md", ".markdown":
			kind = ingest.KindMarkdown
		case ".transcript":
			kind = ingest.KindTranscript
		}

		items = append(items, ingest.Item{
			Name: filepath.Base(file),
			Kind: kind,
			Data: data,
		})
	}
	return items, nil
}

func printResult(result *ingest.Result) {
	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Batch"),
		cliui.ValueStyle.Render(result.BatchID),
	)

	for _, item := range result.Items {
		if item.Error != "" {
			fmt.Printf("  %s %s  %s\n", cliui.FailMark, item.Name, cliui.DimStyle.Render(item.Error))
			continue
		}
		fmt.Printf("  %s %s  %s\n", cliui.SuccessMark, item.Name,
			cliui.DimStyle.Render(fmt.Sprintf("%d concepts", item.Concepts)))
	}

	fmt.Printf("\n  %s\n", cliui.HeaderStyle.Render("Concepts"))
	for _, concept := range result.Concepts {
		fmt.Printf("  %s  %s %s\n",
			cliui.KeyStyle.Render(concept.ID),
			cliui.ValueStyle.Render(fmt.Sprintf("phase %.4f", concept.Phase)),
			cliui.DimStyle.Render(fmt.Sprintf("importance %.2f, %d sources", concept.Importance, len(concept.SourceItems))),
		)
	}

	fmt.Printf("\n  %s %s\n",
		cliui.AccentStyle.Render(result.Strength),
		cliui.DimStyle.Render(fmt.Sprintf("synchronization (coherence %.3f)", result.Coherence)),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render(
		fmt.Sprintf("%s, %d stored, session %s frame %d", result.Status, result.Stored, result.SessionID, result.FrameID)))

	for _, e := range result.Errors {
		fmt.Printf("  %s %s\n", cliui.FailMark, cliui.DimStyle.Render(e))
	}
}
