// Package socket serves search requests over a websocket. Every frame is a
// JSON object {"event", "id", "data"}; replies echo the id of the request
// they answer.
package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
	"github.com/kishore1288/nodenewsearch/internal/enrich"
	"github.com/kishore1288/nodenewsearch/internal/metrics"
	"github.com/kishore1288/nodenewsearch/internal/search"
	"github.com/kishore1288/nodenewsearch/internal/sme"
)

// Event names.
const (
	EventSearch         = "search"
	EventSearchResult   = "search-result"
	EventSearchComplete = "search-complete"
	EventSearchFailure  = "search-failure"

	EventGetTags        = "get-tags"
	EventGetTagsResult  = "get-tags-result"
	EventGetTagsFailure = "get-tags-failure"

	EventGetFolders        = "get-folders"
	EventGetFoldersResult  = "get-folders-result"
	EventGetFoldersFailure = "get-folders-failure"

	EventError = "error"
)

const maxFrameSize = 1 << 20

// Service is what the socket drives. *search.Service implements it.
type Service interface {
	Search(ctx context.Context, req search.Request, sink enrich.Sink) error
	Tags(ctx context.Context, creds search.Credentials) ([]sme.Tag, error)
	Folders(ctx context.Context, creds search.Credentials, folderID int64) ([]search.Folder, error)
}

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Data  any    `json:"data"`
}

type errorData struct {
	Error string `json:"error"`
}

type completeData struct {
	ResultsEmitted int `json:"resultsEmitted"`
}

type tagsData struct {
	Tags []sme.Tag `json:"Tags"`
}

type foldersRequest struct {
	search.Credentials
	FolderID int64 `json:"FolderId"`
}

// Handler upgrades HTTP requests to websocket sessions.
type Handler struct {
	svc      Service
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewHandler creates a Handler. allowedOrigins lists the Origin values
// accepted for the upgrade; "*" or an empty list accepts any.
func NewHandler(svc Service, allowedOrigins []string, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		metrics: m,
		log:     log,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	h.metrics.SocketOpened()
	defer h.metrics.SocketClosed()
	defer conn.Close()

	conn.SetReadLimit(maxFrameSize)
	s := &session{conn: conn, log: h.log}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var in Frame
		if err := json.Unmarshal(msg, &in); err != nil || in.Event == "" {
			s.send(EventError, in.ID, errorData{Error: "invalid message format"})
			continue
		}
		if in.ID == "" {
			in.ID = uuid.NewString()
		}

		var handle func(context.Context, Frame)
		switch in.Event {
		case EventSearch:
			handle = func(ctx context.Context, f Frame) { h.handleSearch(ctx, s, f) }
		case EventGetTags:
			handle = func(ctx context.Context, f Frame) { h.handleTags(ctx, s, f) }
		case EventGetFolders:
			handle = func(ctx context.Context, f Frame) { h.handleFolders(ctx, s, f) }
		default:
			s.send(EventError, in.ID, errorData{Error: "unknown event: " + in.Event})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handle(r.Context(), in)
		}()
	}
}

func (h *Handler) handleSearch(ctx context.Context, s *session, f Frame) {
	sink := &frameSink{s: s, id: f.ID}
	var req search.Request
	if err := decodeData(f.Data, &req); err != nil {
		sink.Failure(apierr.Validation("invalid search request: " + err.Error()))
		return
	}
	// The service reports failures to the sink.
	_ = h.svc.Search(ctx, req, sink)
}

func (h *Handler) handleTags(ctx context.Context, s *session, f Frame) {
	var creds search.Credentials
	if err := decodeData(f.Data, &creds); err != nil {
		s.send(EventGetTagsFailure, f.ID, errorData{Error: "invalid get-tags request"})
		return
	}
	tags, err := h.svc.Tags(ctx, creds)
	if err != nil {
		s.send(EventGetTagsFailure, f.ID, errorData{Error: apierr.PublicMessage(err)})
		return
	}
	s.send(EventGetTagsResult, f.ID, tagsData{Tags: tags})
}

func (h *Handler) handleFolders(ctx context.Context, s *session, f Frame) {
	var req foldersRequest
	if err := decodeData(f.Data, &req); err != nil {
		s.send(EventGetFoldersFailure, f.ID, errorData{Error: "invalid get-folders request"})
		return
	}
	folders, err := h.svc.Folders(ctx, req.Credentials, req.FolderID)
	if err != nil {
		s.send(EventGetFoldersFailure, f.ID, errorData{Error: apierr.PublicMessage(err)})
		return
	}
	s.send(EventGetFoldersResult, f.ID, folders)
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// session serializes writes to one connection.
type session struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  zerolog.Logger
}

func (s *session) send(event, id string, data any) {
	if id == "" {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(outFrame{Event: event, ID: id, Data: data}); err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("websocket write")
	}
}

// frameSink turns search events into frames for one request.
type frameSink struct {
	s  *session
	id string
}

func (f *frameSink) Result(r sme.Result) { f.s.send(EventSearchResult, f.id, r) }

func (f *frameSink) Complete(count int) {
	f.s.send(EventSearchComplete, f.id, completeData{ResultsEmitted: count})
}

func (f *frameSink) Failure(err error) {
	f.s.send(EventSearchFailure, f.id, errorData{Error: apierr.PublicMessage(err)})
}
