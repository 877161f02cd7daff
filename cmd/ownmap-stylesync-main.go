package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/compose"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
	"github.com/jamesrr39/ownmap-stylesync/reconciler"
	"github.com/jamesrr39/ownmap-stylesync/stylesyncconfig"
	"github.com/jamesrr39/ownmap-stylesync/styling"
	"github.com/jamesrr39/ownmap-stylesync/webservices"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/pkg/profile"
)

const DEFAULT_PORT = 9000

var (
	logger  *logpkg.Logger
	verbose = kingpin.Flag("v", "verbose logging").Bool()
)

func main() {
	setupServe()
	setupApply()

	kingpin.Parse()
}

// setupLogger is called from the command actions, after the flags have been parsed
func setupLogger() {
	logLevel := logpkg.LogLevelInfo
	if *verbose {
		logLevel = logpkg.LogLevelDebug
	}
	logger = logpkg.NewLogger(os.Stderr, logLevel)
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

func setupServe() {
	cmd := kingpin.Command("serve", "serve a live style over HTTP, and accept scenes to apply to it")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).String()
	dataDir := cmd.Flag("data-dir", "directory holding the styles, scenes and trace directories").Default(stylesyncconfig.DefaultRootDir).String()
	styleID := cmd.Flag("style-id", "ID of the base style to serve (the name of its directory in the styles directory)").Default(styling.BUILTIN_STYLEID).String()
	sceneFilePath := cmd.Flag("scene", "scene file to apply on start-up").String()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		setupLogger()

		run := func() errorsx.Error {
			var err error
			fs := gofs.NewOsFs()

			pathsConfig, err := stylesyncconfig.NewPathsConfig(*dataDir)
			if err != nil {
				return errorsx.Wrap(err)
			}

			err = pathsConfig.EnsurePaths(fs)
			if err != nil {
				return errorsx.Wrap(err)
			}

			styleSet, err := styling.LoadStylesFromDir(logger, fs, pathsConfig.StylesDir, *styleID)
			if err != nil {
				return errorsx.Wrap(err)
			}

			session := webservices.NewStyleSession(logger, fs, pathsConfig.ScenesDir, styleSet.GetDefaultStyle())

			if *sceneFilePath != "" {
				scene, err := compose.LoadScene(fs, *sceneFilePath)
				if err != nil {
					return errorsx.Wrap(err)
				}

				summary, err := session.ApplyScene(scene)
				if err != nil {
					return errorsx.Wrap(err)
				}
				logger.Info("applied start-up scene %q (%s)", *sceneFilePath, summary)
			}

			router, err := createServer(logger, styleSet, session, pathsConfig)
			if err != nil {
				return errorsx.Wrap(err)
			}

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			logger.Info("about to start serving style %q on %q", session.BaseStyleID(), *addr)

			err = server.ListenAndServe()
			if err != nil {
				return errorsx.Wrap(err)
			}
			return nil
		}

		err := run()
		if err != nil {
			return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
		}
		return nil
	})
}

func setupApply() {
	cmd := kingpin.Command("apply", "apply scene files, one pass each, to a style and print the resulting layer order")
	styleDir := cmd.Arg("style-dir", "directory containing the base style (style.json)").Required().String()
	sceneFilePaths := cmd.Arg("scene-files", "scene files (YAML or JSON) to apply, in order").Required().Strings()
	outputPath := cmd.Flag("output", "write the resulting style document to this file").String()
	shouldProfile := cmd.Flag("profile", "profile the reconciliation performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) (err error) {
		setupLogger()

		defer func() {
			errorx, ok := err.(errorsx.Error)
			if ok {
				log.Printf("%s\n%s\n", errorx.Error(), errorx.Stack())
			}
		}()

		if *shouldProfile {
			profileDir, err := ioutil.TempDir("", "ownmap-stylesync-profile")
			if err != nil {
				return errorsx.Wrap(err)
			}
			defer profile.Start(profile.ProfilePath(profileDir), profile.CPUProfile).Stop()
		}

		fs := gofs.NewOsFs()

		baseStyle, err := styling.LoadStyle(fs, *styleDir)
		if err != nil {
			return errorsx.Wrap(err)
		}

		style := livestyle.NewMemoryStyle(logger, baseStyle.Document)
		applier := compose.NewApplier(logger, reconciler.NewStyleManager(logger, style))

		for _, sceneFilePath := range *sceneFilePaths {
			startTime := time.Now()

			scene, err := compose.LoadScene(fs, sceneFilePath)
			if err != nil {
				return errorsx.Wrap(err)
			}

			summary, err := applier.Apply(scene)
			if err != nil {
				return errorsx.Wrap(err, "sceneFilePath", sceneFilePath)
			}

			fmt.Printf("%s (%s, %d native operations, took %s)\n", sceneFilePath, summary, len(style.Operations()), time.Since(startTime))
			fmt.Printf("\t%s\n", strings.Join(style.LayerIDs(), "\n\t"))
			style.ClearOperations()
		}

		if *outputPath != "" {
			b, err := json.MarshalIndent(style.Document(), "", "\t")
			if err != nil {
				return errorsx.Wrap(err)
			}

			err = fs.WriteFile(*outputPath, b, 0644)
			if err != nil {
				return errorsx.Wrap(err)
			}
		}

		return nil
	})
}

func createServer(logger *logpkg.Logger, styleSet *styling.StyleSet, session *webservices.StyleSession, pathsConfig *stylesyncconfig.PathsConfig) (chi.Router, errorsx.Error) {
	traceFilePath := filepath.Join(pathsConfig.TraceDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
	logger.Info("tracing at %q", traceFilePath)

	traceFile, err := os.Create(traceFilePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tracer := tracing.NewTracer(traceFile)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Route("/api/", func(r chi.Router) {
		r.Mount("/info", webservices.NewInfoService(logger, styleSet, session))
		r.Mount("/style", webservices.NewStyleService(logger, session))
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/style/", http.StatusFound)
	})

	return router, nil
}
