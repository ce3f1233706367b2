package app

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/xxxsen/dtxorg/internal/entity"
)

// ListCommand prints every package with its bound charts.
type ListCommand struct {
	session
}

func NewListCommand() *ListCommand { return &ListCommand{} }

func (c *ListCommand) Name() string { return "list" }

func (c *ListCommand) Desc() string {
	return "列出曲库中的歌曲及其各难度谱面"
}

func (c *ListCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "曲库根目录，默认使用配置中的 library_dir")
}

func (c *ListCommand) PreRun(ctx context.Context) error {
	return c.open(ctx, c.Name())
}

func (c *ListCommand) Run(ctx context.Context) error {
	pkgs, err := c.packages()
	if err != nil {
		return err
	}
	env := c.env()
	for _, pkg := range pkgs {
		if !pkg.HasIndex() {
			fmt.Fprintf(c.out, "%s (no index file)\n", pkg.Name())
			continue
		}
		idx := entity.LoadIndex(pkg.IndexPath, env)
		if !idx.IsValid() {
			continue
		}
		fmt.Fprintf(c.out, "%s\n", idx.Title())
		for _, b := range idx.Bindings() {
			if b.Chart == nil {
				fmt.Fprintf(c.out, "  L%d %-8s (missing %s)\n", b.Slot, b.Label, b.File)
				continue
			}
			fmt.Fprintf(c.out, "  L%d %-8s %4.2f %3d bpm  %s\n", b.Slot, b.Label, b.Chart.Level(), b.Chart.Bpm(), b.Chart.Artist())
		}
	}
	return nil
}

func (c *ListCommand) PostRun(ctx context.Context) error {
	return c.summary()
}

func init() {
	RegisterRunner("list", func() IRunner { return NewListCommand() })
}
