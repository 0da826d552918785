package fx

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/amityadav/researchcrew/internal/config"
	"github.com/amityadav/researchcrew/internal/server"
	"github.com/amityadav/researchcrew/internal/service"
	"go.uber.org/fx"
)

// ServerModule provides and starts the HTTP server
var ServerModule = fx.Module("server",
	fx.Provide(NewHTTPServer),
	fx.Invoke(StartServer),
)

// NewHTTPServer creates the HTTP server serving the UI and the API
func NewHTTPServer(svc *service.ResearchService, cfg config.Config) *http.Server {
	handler := server.NewServer(svc, cfg.APIKey)
	if cfg.APIKey != "" {
		log.Printf("[FX] API key protection enabled for /api")
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ServerParams groups dependencies for starting the server
type ServerParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Server    *http.Server
	Service   *service.ResearchService
}

// StartServer starts the HTTP server with lifecycle management
func StartServer(p ServerParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", p.Server.Addr)
			if err != nil {
				return err
			}

			go func() {
				log.Printf("[FX] HTTP Server (UI + REST) listening on %s", p.Server.Addr)
				if err := p.Server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("[FX] HTTP Server error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Printf("[FX] Shutting down server...")
			if err := p.Server.Shutdown(ctx); err != nil {
				return err
			}
			done := make(chan struct{})
			go func() {
				p.Service.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				log.Printf("[FX] Shutdown deadline reached with research runs still in progress")
			}
			return nil
		},
	})
}
