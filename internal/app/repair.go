package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/entity"
	"github.com/xxxsen/dtxorg/internal/journal"
	"github.com/xxxsen/dtxorg/internal/model"
	"github.com/xxxsen/dtxorg/internal/prompt"
)

// RepairCommand fixes dangling references across the library, asking the
// operator whenever more than one replacement file fits.
type RepairCommand struct {
	session
	journalPath string
	in          io.Reader
	chooser     prompt.Chooser
	store       *journal.Store
	repaired    int
}

func NewRepairCommand() *RepairCommand { return &RepairCommand{} }

func (c *RepairCommand) Name() string { return "repair" }

func (c *RepairCommand) Desc() string {
	return "修复曲库中引用了不存在文件的属性，并记录到修复日志"
}

func (c *RepairCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "曲库根目录，默认使用配置中的 library_dir")
	f.StringVar(&c.journalPath, "journal", "", "修复日志数据库路径，默认使用配置中的 journal_db")
}

func (c *RepairCommand) PreRun(ctx context.Context) error {
	if err := c.open(ctx, c.Name()); err != nil {
		return err
	}
	if c.chooser == nil {
		in := c.in
		if in == nil {
			in = os.Stdin
		}
		c.chooser = prompt.NewConsole(in, c.out)
	}
	if c.journalPath == "" {
		c.journalPath = c.cfg.JournalDB
	}
	if c.journalPath == "" {
		logutil.GetLogger(ctx).Warn("journal disabled, repairs will not be recorded")
		return nil
	}
	store, err := journal.Open(ctx, c.journalPath)
	if err != nil {
		return err
	}
	c.store = store
	return nil
}

func (c *RepairCommand) Run(ctx context.Context) error {
	pkgs, err := c.packages()
	if err != nil {
		return err
	}
	env := entity.Env{Log: c.log, Chooser: c.chooser}
	for _, pkg := range pkgs {
		if !pkg.HasIndex() {
			c.log.Warn("index file missing, run organize first", zap.String("dir", pkg.Dir))
			continue
		}
		idx := entity.LoadIndex(pkg.IndexPath, env)
		if err := c.record(ctx, idx.FindAndRepairProblems(true)); err != nil {
			return err
		}
	}

	files, err := c.categories()
	if err != nil {
		return err
	}
	for _, path := range files {
		cat := entity.LoadCategory(path, env)
		if err := c.record(ctx, cat.FindAndRepairProblems(true)); err != nil {
			return err
		}
	}
	c.log.Info("repair completed", zap.Int("packages", len(pkgs)), zap.Int("repaired", c.repaired))
	return nil
}

// record journals every problem the run acted on.
func (c *RepairCommand) record(ctx context.Context, problems []model.Problem) error {
	resolved := make([]model.Problem, 0, len(problems))
	for _, p := range problems {
		if p.Changed() {
			c.repaired++
		}
		if p.Action != model.ActionMissing {
			resolved = append(resolved, p)
		}
	}
	if c.store == nil {
		return nil
	}
	if err := c.store.Record(ctx, resolved); err != nil {
		return fmt.Errorf("record repairs: %w", err)
	}
	return nil
}

func (c *RepairCommand) PostRun(ctx context.Context) error {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			logutil.GetLogger(ctx).Error("close journal failed", zap.Error(err))
		}
		c.store = nil
	}
	return c.summary()
}

func init() {
	RegisterRunner("repair", func() IRunner { return NewRepairCommand() })
}
