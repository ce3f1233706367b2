package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/config"
	"github.com/xxxsen/dtxorg/internal/fsutil"
	"github.com/xxxsen/dtxorg/internal/journal"
	"github.com/xxxsen/dtxorg/internal/report"
)

// HistoryCommand shows the repair journal and optionally prunes entries whose
// file is gone.
type HistoryCommand struct {
	journalPath string
	limit       int
	prune       bool
	dryRun      bool
	out         io.Writer
	log         *report.Logger
	store       *journal.Store
}

func NewHistoryCommand() *HistoryCommand {
	return &HistoryCommand{
		limit:  20,
		dryRun: true,
	}
}

func (c *HistoryCommand) Name() string { return "history" }

func (c *HistoryCommand) Desc() string {
	return "查看修复日志，可清理文件已不存在的记录"
}

func (c *HistoryCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.journalPath, "journal", "", "修复日志数据库路径，默认使用配置中的 journal_db")
	f.IntVar(&c.limit, "limit", 20, "最多显示的记录数，0 表示全部")
	f.BoolVar(&c.prune, "prune", false, "清理文件已不存在的记录")
	f.BoolVar(&c.dryRun, "dryrun", true, "是否只是演练（默认 true）")
}

func (c *HistoryCommand) PreRun(ctx context.Context) error {
	if c.journalPath == "" {
		if cfg := config.Default(); cfg != nil {
			c.journalPath = cfg.JournalDB
		}
	}
	if strings.TrimSpace(c.journalPath) == "" {
		return errors.New("history requires --journal or journal_db in config")
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.log == nil {
		c.log = report.New(logutil.GetLogger(ctx))
	}
	store, err := journal.Open(ctx, c.journalPath)
	if err != nil {
		return err
	}
	c.store = store
	return nil
}

func (c *HistoryCommand) Run(ctx context.Context) error {
	if c.prune {
		return c.pruneMissing(ctx)
	}
	entries, err := c.store.List(ctx, c.limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		change := e.Value
		if e.NewValue != "" {
			change = e.Value + " -> " + e.NewValue
		}
		fmt.Fprintf(c.out, "%5d %s %-8s %-12s %s  [%s]\n",
			e.ID,
			time.Unix(e.CreateTime, 0).Format("2006-01-02 15:04:05"),
			e.Action,
			e.Property,
			change,
			e.File,
		)
	}
	return nil
}

func (c *HistoryCommand) pruneMissing(ctx context.Context) error {
	entries, err := c.store.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("list journal: %w", err)
	}
	ids := make([]int64, 0)
	for _, e := range entries {
		if fsutil.FileExists(e.File) {
			continue
		}
		c.log.Info("journal entry file missing", zap.Int64("id", e.ID), zap.String("file", e.File))
		ids = append(ids, e.ID)
	}
	if !c.dryRun && len(ids) > 0 {
		const chunkSize = 200
		for start := 0; start < len(ids); start += chunkSize {
			end := start + chunkSize
			if end > len(ids) {
				end = len(ids)
			}
			if err := c.store.DeleteByIDs(ctx, ids[start:end]); err != nil {
				return fmt.Errorf("delete journal entries: %w", err)
			}
		}
	}
	c.log.Info("history prune completed",
		zap.Int("stale_entries", len(ids)),
		zap.Bool("dry_run", c.dryRun),
	)
	return nil
}

func (c *HistoryCommand) PostRun(ctx context.Context) error {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			return fmt.Errorf("close journal: %w", err)
		}
		c.store = nil
	}
	_, err := fmt.Fprintf(c.out, "finished with: %s\n", c.log.Counts())
	return err
}

func init() {
	RegisterRunner("history", func() IRunner { return NewHistoryCommand() })
}
