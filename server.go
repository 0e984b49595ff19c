package main

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/uptrace/bunrouter"
)

// predictor represents inference wrapper instance around the
// currently served checkpoint
var predictor *Predictor

// runHistory represents training run MetaData instance
var runHistory *RunHistory

// helper function to get base path
func basePath(s string) string {
	if Config.Base != "" {
		if strings.HasPrefix(s, "/") {
			s = strings.Replace(s, "/", "", 1)
		}
		if strings.HasPrefix(Config.Base, "/") {
			return fmt.Sprintf("%s/%s", Config.Base, s)
		}
		return fmt.Sprintf("/%s/%s", Config.Base, s)
	}
	return s
}

// bunrouter implementation of the compatible (with net/http) router handlers
func bunRouter() *bunrouter.CompatRouter {
	router := bunrouter.New(
		bunrouter.Use(bunrouterLoggingMiddleware),
		bunrouter.Use(bunrouterLimitMiddleware),
	).Compat()

	// model APIs
	router.POST(basePath("/predict"), PredictHandler)
	router.POST(basePath("/predict/image"), PredictHandler)
	router.GET(basePath("/model"), ModelHandler)

	// web APIs
	router.GET(basePath("/status"), StatusHandler)
	router.GET(basePath("/runs"), RunsHandler)
	router.GET(basePath("/docs"), DocsHandler)
	router.GET(basePath("/favicon.ico"), FaviconHandler)

	return router
}

// Server implements imgqc server
func Server() {

	// initialize server middleware
	initLimiter(Config.LimiterPeriod)

	// initialize training run history
	runHistory = &RunHistory{DBName: Config.DBName, DBColl: Config.DBColl}

	// load checkpoint produced by the training run, the checkpoint is
	// read once at startup and immutable during serving. Without it the
	// server still starts and predict requests report the condition.
	var err error
	predictor, err = NewPredictor(Config.CheckpointPath, Config.ImageSize, Config.ImageChannels, Config.ResizeMode)
	if err != nil {
		log.Printf("unable to load checkpoint %s, error %v", Config.CheckpointPath, err)
	} else {
		log.Printf("serving checkpoint %s epoch=%d accuracy=%.4f",
			Config.CheckpointPath, predictor.Meta.Epoch, predictor.Meta.Accuracy)
	}

	// setup server router
	router := bunRouter()

	// start HTTPs server
	if len(Config.DomainNames) > 0 {
		server := LetsEncryptServer(Config.DomainNames...)
		server.Handler = router
		log.Println("Start HTTPs server with LetsEncrypt", Config.DomainNames)
		log.Fatal(server.ListenAndServeTLS("", ""))
	} else if Config.ServerCrt != "" && Config.ServerKey != "" {
		tlsConfig := &tls.Config{
			RootCAs: RootCAs(),
		}
		server := &http.Server{
			Addr:      ":https",
			TLSConfig: tlsConfig,
			Handler:   router,
		}
		log.Printf("Start HTTPs server with %s and %s on :%d", Config.ServerCrt, Config.ServerKey, Config.Port)
		log.Fatal(server.ListenAndServeTLS(Config.ServerCrt, Config.ServerKey))
	} else {
		log.Printf("Start HTTP server on :%d", Config.Port)
		http.ListenAndServe(fmt.Sprintf(":%d", Config.Port), router)
	}
}
