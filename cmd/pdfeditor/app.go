package main

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MalithGihan/pdfeditor/internal/config"
	"github.com/MalithGihan/pdfeditor/internal/editor"
	"github.com/MalithGihan/pdfeditor/internal/logging"
	"github.com/MalithGihan/pdfeditor/internal/pdfdoc"
	"github.com/MalithGihan/pdfeditor/internal/processor"
	"github.com/MalithGihan/pdfeditor/internal/store"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg: cfg,
		log: logger.With(
			zap.String("run_id", uuid.NewString()),
			zap.String("platform", processor.DetectPlatform()),
		),
	}, nil
}

func (a *app) library() *pdfdoc.Library {
	return pdfdoc.New(pdfdoc.Options{
		Optimize:      a.cfg.PDF.Optimize,
		ObjectStreams: a.cfg.PDF.ObjectStreams,
		Strict:        a.cfg.PDF.Validation == "strict",
		Logger:        a.log,
	})
}

// node runs the capability probe and builds the request processor around
// its result.
func (a *app) node() *editor.Node {
	probe := pdfdoc.Probe()
	if probe != nil {
		a.log.Error("pdf libraries unavailable", zap.Error(probe))
	}
	ed := editor.New(openWith(a.library()), store.New(), a.log)
	return editor.NewNode(ed, probe, a.log)
}

func openWith(lib *pdfdoc.Library) editor.OpenFunc {
	return func(path string) (editor.Document, error) {
		doc, err := lib.Open(path)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

func (a *app) close() {
	_ = a.log.Sync()
}
