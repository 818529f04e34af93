package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/speedmark/internal/app"
	"github.com/dshills/speedmark/internal/config"
	"github.com/dshills/speedmark/internal/logging"
	"github.com/dshills/speedmark/internal/term"
	"github.com/dshills/speedmark/internal/watcher"
)

func cmdView(ctx context.Context, args []string, opts options, settings config.Settings, log *logging.Logger) error {
	path, err := oneFile(args)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	w, h := screen.Size()
	doc, err := app.LoadDocument(path, nil, w, max(h-1, 1))
	if err != nil {
		return err
	}

	store := config.NewStore(settings)
	var viewer *term.Viewer
	ctrl := app.New(store,
		app.WithLogger(log),
		app.WithPost(term.Poster(screen)),
		app.WithProgress(func(done, total int) {
			if viewer != nil {
				viewer.OnProgress(done, total)
			}
		}),
		app.WithPassHook(func(info app.PassInfo) {
			if viewer != nil {
				viewer.OnPass(info)
			}
		}),
	)
	defer ctrl.Close()

	viewer = term.New(screen, ctrl, doc, term.WithLogger(log))
	sub := store.Subscribe(func(_, updated config.Settings) {
		viewer.OnSettingsChanged(updated.Highlight.Color)
	})
	defer sub.Unsubscribe()

	stopWatch, err := watch(ctx, path, opts.ConfigPath, store, viewer, log)
	if err != nil {
		log.Warn("file watching disabled", "error", err)
	} else {
		defer stopWatch()
	}

	viewer.Activate()
	return viewer.Run(ctx)
}

// watch reloads the document and the settings file when they change on
// disk. The returned function stops watching.
func watch(ctx context.Context, docPath, configPath string, store *config.Store, viewer *term.Viewer, log *logging.Logger) (func(), error) {
	fw, err := watcher.New(watcher.WithLogger(log))
	if err != nil {
		return nil, err
	}

	absDoc, err := filepath.Abs(docPath)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := fw.Add(absDoc); err != nil {
		_ = fw.Close()
		return nil, err
	}

	if configPath == "" {
		configPath = config.DefaultPath()
	}
	absConfig := ""
	if configPath != "" {
		if p, err := filepath.Abs(configPath); err == nil {
			if err := fw.Add(p); err == nil {
				absConfig = p
			} else {
				log.Debug("not watching settings file", "path", p, "error", err)
			}
		}
	}

	d := watcher.NewDispatcher()
	d.OnModified(absDoc, func() {
		viewer.Post(viewer.Reload)
	})
	if absConfig != "" {
		d.OnModified(absConfig, func() {
			viewer.Post(func() {
				s, warnings, err := config.Load(config.LoadOptions{Path: absConfig})
				if err != nil {
					viewer.SetStatus(err.Error())
					return
				}
				for _, w := range warnings {
					log.Warn("settings adjusted", "warning", w)
				}
				store.Set(s)
				viewer.SetStatus("settings reloaded")
			})
		})
	}
	d.OnError(func(err error) {
		log.Warn("watch error", "error", err)
	})

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(wctx, fw)
	}()

	return func() {
		cancel()
		_ = fw.Close()
		<-done
	}, nil
}
