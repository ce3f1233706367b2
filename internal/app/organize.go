package app

import (
	"context"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/entity"
)

// OrganizeCommand renames every package folder after its title and creates
// index files for packages that lack one.
type OrganizeCommand struct {
	session
	rename     bool
	adoptTitle bool
}

func NewOrganizeCommand() *OrganizeCommand {
	return &OrganizeCommand{rename: true, adoptTitle: true}
}

func (c *OrganizeCommand) Name() string { return "organize" }

func (c *OrganizeCommand) Desc() string {
	return "按标题重命名歌曲目录，并为缺少 SET.def 的目录生成索引"
}

func (c *OrganizeCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "曲库根目录，默认使用配置中的 library_dir")
	f.BoolVar(&c.rename, "rename", true, "是否按标题重命名歌曲目录")
	f.BoolVar(&c.adoptTitle, "adopt-title", true, "生成索引时是否采用最低难度谱面的标题")
}

func (c *OrganizeCommand) PreRun(ctx context.Context) error {
	return c.open(ctx, c.Name())
}

func (c *OrganizeCommand) Run(ctx context.Context) error {
	pkgs, err := c.packages()
	if err != nil {
		return err
	}
	env := c.env()
	for _, pkg := range pkgs {
		var idx *entity.IndexFile
		if pkg.HasIndex() {
			idx = entity.LoadIndex(pkg.IndexPath, env)
		} else {
			c.log.Warn("index file missing, creating one", zap.String("dir", pkg.Dir))
			idx = entity.CreateIndex(pkg.Name(), filepath.Join(pkg.Dir, c.cfg.IndexFile), c.adoptTitle, env)
			if !idx.IsValid() {
				c.log.Error("package abandoned", zap.String("dir", pkg.Dir))
				continue
			}
		}
		if !idx.IsValid() || !c.rename {
			continue
		}
		idx.RenameContainingFolderToTitle()
	}
	c.log.Info("organize completed", zap.Int("packages", len(pkgs)))
	return nil
}

func (c *OrganizeCommand) PostRun(ctx context.Context) error {
	return c.summary()
}

func init() {
	RegisterRunner("organize", func() IRunner { return NewOrganizeCommand() })
}
