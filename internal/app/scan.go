package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/entity"
	"github.com/xxxsen/dtxorg/internal/model"
)

// ScanCommand reports dangling references without touching any file.
type ScanCommand struct {
	session
	output string
	result model.ProblemReport
}

func NewScanCommand() *ScanCommand { return &ScanCommand{} }

func (c *ScanCommand) Name() string { return "scan" }

func (c *ScanCommand) Desc() string {
	return "扫描曲库，列出引用了不存在文件的属性（只读）"
}

func (c *ScanCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "曲库根目录，默认使用配置中的 library_dir")
	f.StringVar(&c.output, "output", "", "将结果写入 JSON 文件")
}

func (c *ScanCommand) PreRun(ctx context.Context) error {
	return c.open(ctx, c.Name())
}

func (c *ScanCommand) Run(ctx context.Context) error {
	pkgs, err := c.packages()
	if err != nil {
		return err
	}
	env := c.env()
	c.result = model.ProblemReport{Packages: make([]model.PackageProblems, 0)}
	for _, pkg := range pkgs {
		if !pkg.HasIndex() {
			c.log.Warn("index file missing, run organize first", zap.String("dir", pkg.Dir))
			continue
		}
		idx := entity.LoadIndex(pkg.IndexPath, env)
		c.add(pkg.Dir, idx.Title(), idx.FindAndRepairProblems(false))
	}
	if err := c.scanCategories(env); err != nil {
		return err
	}

	if c.output != "" {
		return c.writeReport()
	}
	c.printReport()
	return nil
}

func (c *ScanCommand) scanCategories(env entity.Env) error {
	files, err := c.categories()
	if err != nil {
		return err
	}
	for _, path := range files {
		cat := entity.LoadCategory(path, env)
		c.add(filepath.Dir(path), cat.Title(), cat.FindAndRepairProblems(false))
	}
	return nil
}

func (c *ScanCommand) add(location, title string, problems []model.Problem) {
	if len(problems) == 0 {
		return
	}
	c.result.Count += len(problems)
	c.result.Packages = append(c.result.Packages, model.PackageProblems{
		Location: location,
		Title:    title,
		Problems: problems,
	})
}

func (c *ScanCommand) writeReport() error {
	data, err := json.MarshalIndent(c.result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(c.output, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", c.output, err)
	}
	c.log.Info("report written", zap.String("path", c.output), zap.Int("problems", c.result.Count))
	return nil
}

func (c *ScanCommand) printReport() {
	for _, pkg := range c.result.Packages {
		fmt.Fprintf(c.out, "%s (%s)\n", pkg.Title, pkg.Location)
		for _, p := range pkg.Problems {
			rel, err := filepath.Rel(pkg.Location, p.File)
			if err != nil {
				rel = p.File
			}
			fmt.Fprintf(c.out, "  %-12s %s  [%s]\n", p.Property, p.Value, filepath.ToSlash(rel))
		}
	}
	fmt.Fprintf(c.out, "%d missing references in %d locations\n", c.result.Count, len(c.result.Packages))
}

// Result returns the problems found by the last Run.
func (c *ScanCommand) Result() model.ProblemReport {
	return c.result
}

func (c *ScanCommand) PostRun(ctx context.Context) error {
	return c.summary()
}

func init() {
	RegisterRunner("scan", func() IRunner { return NewScanCommand() })
}
