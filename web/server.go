// Package web serves normalized models as GLB.
package web

import (
	"bytes"
	"io/fs"
	"net/http"
	"strings"

	"github.com/binzume/pokeview/catalog"
	"github.com/binzume/pokeview/converter"
	"github.com/binzume/pokeview/loader"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	Loader  *loader.ModelLoader
	Catalog *catalog.Catalog
	// Assets is the root textures are embedded from.
	Assets       fs.FS
	TextureLimit int
	Logger       *zap.Logger
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Handler returns the router wrapped with recovery and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/pokemon/{id}/model.glb", s.handlePokemon).Methods(http.MethodGet)
	r.HandleFunc("/model.glb", s.handleModel).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	stdlog := zap.NewStdLog(s.logger().Named("http"))
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(stdlog), handlers.PrintRecoveryStack(true))(r)
	return handlers.CombinedLoggingHandler(stdlog.Writer(), h)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger().Info("starting server", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handlePokemon(w http.ResponseWriter, r *http.Request) {
	modelPath := s.Catalog.Resolve(mux.Vars(r)["id"])
	s.writeModel(w, r, modelPath)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	modelPath := r.URL.Query().Get("path")
	if modelPath == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(modelPath, "/") {
		modelPath = "/" + modelPath
	}
	s.writeModel(w, r, modelPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok\n"))
}

func (s *Server) writeModel(w http.ResponseWriter, r *http.Request, modelPath string) {
	root, state := s.Loader.LoadState(r.Context(), modelPath)
	var buf bytes.Buffer
	err := converter.WriteGLB(&buf, root, &converter.SceneToGLTFOption{
		TextureSource:          s.Assets,
		TextureDir:             loader.ModelDir(modelPath),
		TextureResolutionLimit: s.TextureLimit,
		Logger:                 s.logger(),
	})
	if err != nil {
		s.logger().Error("glb export failed", zap.String("path", modelPath), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "model/gltf-binary")
	if state == loader.StateFailed {
		w.Header().Set("X-Model-Fallback", "1")
	}
	w.Write(buf.Bytes())
}
