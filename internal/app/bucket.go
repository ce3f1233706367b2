package app

import (
	"context"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/entity"
	"github.com/xxxsen/dtxorg/internal/library"
)

// BucketCommand groups packages into bucket folders by the first character
// of their title.
type BucketCommand struct {
	session
	target string
}

func NewBucketCommand() *BucketCommand { return &BucketCommand{} }

func (c *BucketCommand) Name() string { return "bucket" }

func (c *BucketCommand) Desc() string {
	return "按标题首字母将歌曲目录归入分组文件夹"
}

func (c *BucketCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "曲库根目录，默认使用配置中的 library_dir")
	f.StringVar(&c.target, "target", "", "分组文件夹所在目录，默认与 --dir 相同")
}

func (c *BucketCommand) PreRun(ctx context.Context) error {
	if err := c.open(ctx, c.Name()); err != nil {
		return err
	}
	if c.target == "" {
		c.target = c.dir
	}
	return nil
}

func (c *BucketCommand) Run(ctx context.Context) error {
	pkgs, err := c.packages()
	if err != nil {
		return err
	}
	env := c.env()
	tmpl := library.Template{
		CategoryFile:     c.cfg.CategoryFile,
		CategoryTemplate: c.cfg.Bucket.CategoryTemplate,
		FolderImage:      c.cfg.Bucket.FolderImage,
	}
	moved := 0
	for _, pkg := range pkgs {
		title := pkg.Name()
		if pkg.HasIndex() {
			if idx := entity.LoadIndex(pkg.IndexPath, env); idx.IsValid() && idx.Title() != "" {
				title = idx.Title()
			}
		}
		name := library.BucketName(c.cfg.Bucket.NameFormat, library.BucketKey(title, c.cfg.Bucket.OtherKey))
		bucketDir, err := library.EnsureBucket(c.target, name, tmpl, env)
		if err != nil {
			c.log.Error("prepare bucket failed", zap.String("bucket", name), zap.Error(err))
			continue
		}
		newDir, ok, err := library.MoveIntoBucket(pkg.Dir, bucketDir)
		if err != nil {
			c.log.Error("move package failed", zap.String("dir", pkg.Dir), zap.String("bucket", name), zap.Error(err))
			continue
		}
		if ok {
			moved++
			c.log.Info("moved package", zap.String("title", title), zap.String("to", filepath.Join(name, filepath.Base(newDir))))
		}
	}
	c.log.Info("bucket completed", zap.Int("packages", len(pkgs)), zap.Int("moved", moved))
	return nil
}

func (c *BucketCommand) PostRun(ctx context.Context) error {
	return c.summary()
}

func init() {
	RegisterRunner("bucket", func() IRunner { return NewBucketCommand() })
}
