package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/creativechannel/denizen/internal"
	"github.com/creativechannel/denizen/internal/ginutil"
	"github.com/creativechannel/denizen/internal/logging"
	"github.com/creativechannel/denizen/internal/server/authn"
	"github.com/creativechannel/denizen/internal/server/cache"
	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/metrics"
)

type Options struct {
	// EnableLogSampling indicates whether or not to sample HTTP access logs.
	// When true, non-error logs are sampled down to 1 every 7 seconds grouped
	// by the request path.
	EnableLogSampling bool

	// SessionDuration is the TTL of member sessions in the cache.
	SessionDuration time.Duration

	// SessionHashSalt is mixed into both segments of derived session ids. It
	// must match across all servers behind the same host name.
	SessionHashSalt string
	// SessionSegmentLength truncates the host segment of a session id.
	SessionSegmentLength int
	// HostName identifies this server in session id derivation.
	HostName string

	// Cache contains the connection options for the redis server.
	Cache cache.Options

	// DBConnectionString is a postgres connection string. When empty, DBFile
	// selects a sqlite database instead.
	DBConnectionString string
	DBFile             string

	Addr ListenerOptions
	API  APIOptions
}

type ListenerOptions struct {
	HTTP    string
	Metrics string
}

type APIOptions struct {
	RequestTimeout time.Duration
}

type Server struct {
	options         Options
	db              *gorm.DB
	cache           *cache.Cache
	nonces          *authn.NonceStore
	sessions        *authn.SessionAuthenticator
	metricsRegistry *prometheus.Registry
	Addrs           Addrs
	routines        []routine
}

type Addrs struct {
	HTTP    net.Addr
	Metrics net.Addr
}

type routine struct {
	run  func() error
	stop func()
}

// New creates a Server, and initializes it. The returned Server is ready to
// run.
func New(options Options) (*Server, error) {
	if options.SessionHashSalt == "" {
		return nil, errors.New("a session hash salt is required")
	}
	if options.SessionDuration == 0 {
		options.SessionDuration = 24 * time.Hour
	}
	if options.API.RequestTimeout == 0 {
		options.API.RequestTimeout = time.Minute
	}

	server := &Server{options: options}

	driver, err := newDatabaseDriver(options)
	if err != nil {
		return nil, fmt.Errorf("database driver: %w", err)
	}

	server.db, err = data.NewDB(driver)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	server.cache, err = cache.NewCache(options.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	if server.cache == nil {
		return nil, errors.New("a cache server is required for nonce and session storage")
	}

	server.nonces = authn.NewNonceStore(server.cache)
	server.sessions = &authn.SessionAuthenticator{
		Cache:         server.cache,
		Salt:          options.SessionHashSalt,
		SegmentLength: options.SessionSegmentLength,
		HostName:      options.HostName,
	}

	server.metricsRegistry = prometheus.NewRegistry()

	if err := server.listen(); err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}

	return server, nil
}

func newDatabaseDriver(options Options) (gorm.Dialector, error) {
	if options.DBConnectionString != "" {
		return data.NewPostgresDriver(options.DBConnectionString)
	}
	return data.NewSQLiteDriver(options.DBFile)
}

// DB returns the database connection pool used by the server. It is
// primarily used by tests to create fixture data.
func (s *Server) DB() *gorm.DB {
	return s.db
}

func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for i := range s.routines {
		group.Go(s.routines[i].run)
	}

	logging.Infof("starting denizen server (%s) - http:%s metrics:%s",
		internal.FullVersion(), s.Addrs.HTTP, s.Addrs.Metrics)

	<-ctx.Done()
	for i := range s.routines {
		s.routines[i].stop()
	}

	err := group.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) listen() error {
	ginutil.SetMode()
	router := s.GenerateRoutes(s.metricsRegistry)

	httpErrorLog := log.New(logging.NewHTTPErrorWriter(), "", 0)

	metricsServer := &http.Server{
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		Addr:              s.options.Addr.Metrics,
		Handler:           metrics.NewHandler(s.metricsRegistry),
		ErrorLog:          httpErrorLog,
	}

	var err error
	s.Addrs.Metrics, err = s.setupServer(metricsServer)
	if err != nil {
		return err
	}

	apiServer := &http.Server{
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		Addr:              s.options.Addr.HTTP,
		Handler:           router,
		ErrorLog:          httpErrorLog,
	}
	s.Addrs.HTTP, err = s.setupServer(apiServer)
	if err != nil {
		return err
	}

	return nil
}

func (s *Server) setupServer(server *http.Server) (net.Addr, error) {
	if server.Addr == "" {
		server.Addr = ":0"
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, err
	}

	s.routines = append(s.routines, routine{
		run: func() error {
			return server.Serve(listener)
		},
		stop: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logging.Warnf("shutdown: %v", err)
			}
		},
	})

	return listener.Addr(), nil
}
