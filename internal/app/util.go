package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/config"
	"github.com/xxxsen/dtxorg/internal/constant"
	"github.com/xxxsen/dtxorg/internal/entity"
	"github.com/xxxsen/dtxorg/internal/library"
	"github.com/xxxsen/dtxorg/internal/report"
)

// session is the state every library command shares: the resolved library
// directory, the counting logger, and where results are printed.
type session struct {
	dir string
	out io.Writer
	log *report.Logger
	cfg *config.Config
}

func (s *session) open(ctx context.Context, name string) error {
	s.cfg = config.Default()
	if s.cfg == nil {
		s.cfg = config.New()
	}
	if strings.TrimSpace(s.dir) == "" {
		s.dir = s.cfg.LibraryDir
	}
	if strings.TrimSpace(s.dir) == "" {
		return fmt.Errorf("%s requires --dir or library_dir in config", name)
	}
	abs, err := filepath.Abs(s.dir)
	if err != nil {
		return fmt.Errorf("resolve dir %s: %w", s.dir, err)
	}
	s.dir = abs
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.log == nil {
		s.log = report.New(logutil.GetLogger(ctx))
	}
	logutil.GetLogger(ctx).Info("starting "+name, zap.String("dir", s.dir))
	return nil
}

func (s *session) env() entity.Env {
	return entity.Env{Log: s.log}
}

func (s *session) packages() ([]library.Package, error) {
	return library.Discover(s.dir, s.cfg.IndexFile, constant.ChartExt)
}

func (s *session) categories() ([]string, error) {
	return library.DiscoverCategories(s.dir, s.cfg.CategoryFile)
}

func (s *session) summary() error {
	if s.log == nil {
		return nil
	}
	_, err := fmt.Fprintf(s.out, "finished with: %s\n", s.log.Counts())
	return err
}
