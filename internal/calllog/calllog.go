// Package calllog stores a metadata record of every ended call.
package calllog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/HMasataka/teamcall/internal/call"
	"github.com/gammazero/workerpool"
	"google.golang.org/api/option"
)

const writeTimeout = 10 * time.Second

var ErrNoProject = errors.New("calllog: project id is required")

type Config struct {
	Enabled         bool   `toml:"enabled"`
	ProjectID       string `toml:"project"`
	CredentialsFile string `toml:"credentials"`
	Collection      string `toml:"collection"`
}

func DefaultConfig() Config {
	return Config{Collection: "calls"}
}

// Entry is one call document. Media never leaves the peers, only metadata
// is written.
type Entry struct {
	CallID          string    `firestore:"callId"`
	Direction       string    `firestore:"direction"`
	PeerID          string    `firestore:"peerId"`
	PeerDisplayName string    `firestore:"peerDisplayName"`
	Reason          string    `firestore:"reason"`
	Error           string    `firestore:"error,omitempty"`
	StartedAt       time.Time `firestore:"startedAt"`
	ConnectedAt     time.Time `firestore:"connectedAt,omitempty"`
	EndedAt         time.Time `firestore:"endedAt"`
	DurationSeconds float64   `firestore:"durationSeconds"`
}

func NewEntry(s call.Snapshot) Entry {
	e := Entry{
		CallID:          s.ID,
		Direction:       s.Direction.String(),
		PeerID:          s.PeerID,
		PeerDisplayName: s.PeerDisplayName,
		Reason:          string(s.Reason),
		StartedAt:       s.StartedAt,
		ConnectedAt:     s.ConnectedAt,
		EndedAt:         s.EndedAt,
		DurationSeconds: s.Duration().Seconds(),
	}
	if s.Err != nil {
		e.Error = s.Err.Error()
	}
	return e
}

type Writer interface {
	Write(ctx context.Context, entry Entry) error
}

// FirestoreWriter writes entries keyed by call id.
type FirestoreWriter struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreWriter(ctx context.Context, cfg Config) (*FirestoreWriter, error) {
	if cfg.ProjectID == "" {
		return nil, ErrNoProject
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = DefaultConfig().Collection
	}

	slog.Info("call log enabled", slog.String("project_id", cfg.ProjectID), slog.String("collection", collection))
	return &FirestoreWriter{client: client, collection: collection}, nil
}

func (w *FirestoreWriter) Write(ctx context.Context, entry Entry) error {
	if _, err := w.client.Collection(w.collection).Doc(entry.CallID).Set(ctx, entry); err != nil {
		return fmt.Errorf("failed to write call %s: %w", entry.CallID, err)
	}
	return nil
}

func (w *FirestoreWriter) Close() error {
	return w.client.Close()
}

// Recorder is a call.Observer that writes an Entry when a call ends.
// Writes run on their own worker so the engine loop never waits on the
// network.
type Recorder struct {
	call.NopObserver

	writer Writer
	pool   *workerpool.WorkerPool
}

func NewRecorder(writer Writer) *Recorder {
	return &Recorder{
		writer: writer,
		pool:   workerpool.New(1),
	}
}

func (r *Recorder) OnCallEnded(s call.Snapshot) {
	entry := NewEntry(s)
	r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := r.writer.Write(ctx, entry); err != nil {
			slog.Warn("failed to record call", slog.String("call_id", entry.CallID), slog.String("error", err.Error()))
		}
	})
}

// Close waits for pending writes.
func (r *Recorder) Close() {
	r.pool.StopWait()
}
