package lib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/HMasataka/teamcall/internal/call"
	"github.com/HMasataka/teamcall/internal/calllog"
	"github.com/HMasataka/teamcall/internal/config"
	"github.com/HMasataka/teamcall/internal/logger"
	"github.com/HMasataka/teamcall/internal/metrics"
	"github.com/HMasataka/teamcall/internal/signaling"
	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/HMasataka/teamcall/pkg/media/device"
	pkgwebrtc "github.com/HMasataka/teamcall/pkg/webrtc"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime is a connected caller: signaling client, call engine and the
// observers around them.
type Runtime struct {
	Engine    *call.Engine
	Signaling *signaling.Client
	Events    *Events

	started   bool
	engineErr chan error
	closers   []func()
}

func New(ctx context.Context, cfg config.Client, out io.Writer) (*Runtime, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	r := &Runtime{Events: NewEvents(), engineErr: make(chan error, 1)}

	source, permissions, codecs, err := mediaSource(cfg.Media)
	if err != nil {
		return nil, err
	}

	pcOptions := cfg.PeerConnectionOptions()
	pcOptions.Codecs = codecs
	factory, err := pkgwebrtc.NewFactory(pcOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection factory: %w", err)
	}

	observers := call.Observers{NewConsole(out), r.Events, NewReceiver(ctx)}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		observers = append(observers, metrics.New(reg))
		r.serveMetrics(cfg.Metrics.Addr, metrics.Handler(reg))
	}

	if cfg.CallLog.Enabled {
		writer, err := calllog.NewFirestoreWriter(ctx, cfg.CallLog)
		if err != nil {
			r.Close()
			return nil, err
		}
		recorder := calllog.NewRecorder(writer)
		observers = append(observers, recorder)
		r.closers = append(r.closers, func() {
			recorder.Close()
			if err := writer.Close(); err != nil {
				slog.Warn("failed to close call log", slog.String("error", err.Error()))
			}
		})
	}

	r.Signaling = signaling.New(cfg.Signaling.URL, cfg.SignalingIdentity(), cfg.SignalingOptions())
	r.Engine = call.NewEngine(cfg.CallConfig(), call.Deps{
		Signaling:   r.Signaling,
		Factory:     call.NewPeerConnectionFactory(factory),
		Media:       source,
		Permissions: permissions,
		Observer:    observers,
	})

	return r, nil
}

func mediaSource(cfg config.MediaConfig) (media.Source, media.Permissions, pkgwebrtc.CodecRegistrar, error) {
	if cfg.Source == "static" {
		return media.NewStaticSource(uuid.NewString()), media.StaticPermissions(true), nil, nil
	}

	source, err := device.NewSource(device.Config{
		VideoBitRate: cfg.VideoBitRate,
		Width:        cfg.Width,
		Height:       cfg.Height,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open capture devices: %w", err)
	}
	return source, device.Permissions{}, source, nil
}

func (r *Runtime) serveMetrics(addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	r.closers = append(r.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
}

// Start runs the engine and connects. It returns once the server has
// greeted this client.
func (r *Runtime) Start(ctx context.Context) (string, error) {
	r.started = true
	go func() {
		r.engineErr <- r.Engine.Run(ctx)
	}()

	// handlers are registered by the time the loop answers
	if _, err := r.Engine.Snapshot(ctx); err != nil {
		return "", err
	}
	r.Signaling.Start(ctx)

	select {
	case id := <-r.Events.Connected:
		return id, nil
	case err := <-r.Events.Errors:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close hangs up, disconnects and flushes observers.
func (r *Runtime) Close() {
	if r.started {
		_ = r.Engine.Close()
		select {
		case <-r.engineErr:
		case <-time.After(5 * time.Second):
			slog.Warn("call engine did not stop in time")
		}
	}
	if r.Signaling != nil {
		_ = r.Signaling.Close()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}
