package main

import (
	"context"
	"errors"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/scribe-ls/scribe/config"
	"github.com/scribe-ls/scribe/fswatch"
	"github.com/scribe-ls/scribe/pipeline"
	"github.com/scribe-ls/scribe/scope"
	"github.com/scribe-ls/scribe/workspace"
)

const lsName = "scribe-lsp"

var (
	version = "0.1.0"
)

func serve(ctx context.Context, cfg *MainConfig) error {
	logger, level, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	server := &Server{
		cfg:     cfg,
		log:     logger,
		level:   level,
		events:  make(chan workspace.Event, 256),
		session: workspace.NewSession(),
		pipe:    pipeline.NewMemory(),
	}
	stream := jsonrpc2.NewStream(&stdioReadWriteCloser{
		read:  os.Stdin,
		write: os.Stdout,
	})
	handler := protocol.ServerHandler(server, nil)
	conn := jsonrpc2.NewConn(stream)
	server.conn = conn
	conn.Go(ctx, handler)
	<-conn.Done()
	if server.cancel != nil {
		server.cancel()
	}
	return nil
}

// buildLogger writes to stderr; stdout belongs to the protocol stream.
func buildLogger(flagLevel string) (*zap.Logger, zap.AtomicLevel, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if flagLevel != "" {
		lvl, err := zap.ParseAtomicLevel(flagLevel)
		if err != nil {
			return nil, zap.AtomicLevel{}, err
		}
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, zcfg.Level, nil
}

type stdioReadWriteCloser struct {
	read  io.Reader
	write io.Writer
}

func (s *stdioReadWriteCloser) Read(p []byte) (n int, err error) {
	return s.read.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (n int, err error) {
	return s.write.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	return nil
}

type Server struct {
	conn  jsonrpc2.Conn
	cfg   *MainConfig
	log   *zap.Logger
	level zap.AtomicLevel

	events  chan workspace.Event
	session *workspace.Session
	scope   *scope.Scope
	pipe    *pipeline.Memory
	watcher *fswatch.Watcher
	cancel  context.CancelFunc
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	root := s.cfg.Root
	if root == "" && params.RootURI != "" {
		root = params.RootURI.Filename()
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	fileCfg, err := config.Load(root)
	if err != nil {
		if !errors.Is(err, config.ErrNoConfig) {
			return nil, err
		}
		fileCfg = config.Default()
	}
	if s.cfg.Log == "" {
		lvl, err := fileCfg.Log.ZapLevel()
		if err != nil {
			return nil, err
		}
		s.level.SetLevel(lvl.Level())
	}

	sc, err := scope.New(root, fileCfg.Ignore, fileCfg.IgnoreExpr)
	if err != nil {
		return nil, err
	}
	s.scope = sc

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.batchLoop(loopCtx)

	if fileCfg.Watch.On() && !s.cfg.NoWatch {
		w, err := fswatch.New(sc, fswatch.Options{Debounce: fileCfg.Watch.Debounce()}, s.log)
		if err != nil {
			s.log.Warn("filesystem watcher disabled", zap.Error(err))
		} else {
			s.watcher = w
			go s.pumpWatcher(loopCtx)
		}
	}

	s.log.Info("workspace initialized",
		zap.String("root", sc.Root()),
		zap.Bool("watching", s.watcher != nil))

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				Change:    protocol.TextDocumentSyncKindIncremental,
				OpenClose: true,
				Save:      &protocol.SaveOptions{IncludeText: false},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    lsName,
			Version: version,
		},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	return nil
}

func (s *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	return nil
}
