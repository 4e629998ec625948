// Package remote talks to the board service over HTTP. Client is the
// mutation boundary and the authoritative fetch of a session.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"strello/internal/api"
	"strello/internal/hub"
	"strello/internal/intent"
	"strello/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const DefaultTimeout = 10 * time.Second

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a newer write to the same object was already applied.
	ErrConflict = errors.New("conflicting newer write")
	ErrRejected = errors.New("request rejected")
)

// StatusError is returned for responses other than 2xx. It wraps one of the
// sentinel errors when the status has a meaning of its own.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest:
		return ErrRejected
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		dialer:     websocket.DefaultDialer,
	}
}

// WithHTTPClient replaces the client used for requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Fetch reads the authoritative snapshot of a board.
func (c *Client) Fetch(ctx context.Context, boardID uuid.UUID) (model.Snapshot, error) {
	var snap model.Snapshot
	err := c.do(ctx, http.MethodGet, "/boards/"+boardID.String(), nil, &snap)
	return snap, err
}

// CreateBoard creates a board and returns it.
func (c *Client) CreateBoard(ctx context.Context, title, color string) (model.Board, error) {
	var board model.Board
	err := c.do(ctx, http.MethodPost, "/boards", api.CreateBoardRequest{Title: title, Color: color}, &board)
	return board, err
}

// Mutate sends one intent to the service. A repeated create is not an
// error.
func (c *Client) Mutate(ctx context.Context, in intent.Intent) error {
	switch in := in.(type) {
	case intent.CreateColumn:
		return c.do(ctx, http.MethodPost, "/columns", api.CreateColumnRequest{
			ID:        in.ColumnID.String(),
			BoardID:   in.BoardID.String(),
			Title:     in.Title,
			Order:     in.Order,
			Timestamp: in.Timestamp,
		}, nil)
	case intent.RenameColumn:
		return c.do(ctx, http.MethodPut, "/columns/"+in.ColumnID.String()+"/title", api.RenameColumnRequest{
			Title:     in.Title,
			Timestamp: in.Timestamp,
		}, nil)
	case intent.MoveColumn:
		return c.do(ctx, http.MethodPut, "/columns/"+in.ColumnID.String()+"/order", api.MoveColumnRequest{
			Order:     in.Order,
			Timestamp: in.Timestamp,
		}, nil)
	case intent.DeleteColumn:
		return c.do(ctx, http.MethodDelete, deletePath("/columns/", in.ColumnID, in.Timestamp), nil, nil)
	case intent.CreateCard:
		return c.do(ctx, http.MethodPost, "/cards", api.CreateCardRequest{
			ID:        in.CardID.String(),
			BoardID:   in.BoardID.String(),
			ColumnID:  in.ColumnID.String(),
			Body:      in.Body,
			Order:     in.Order,
			Timestamp: in.Timestamp,
		}, nil)
	case intent.EditCard:
		return c.do(ctx, http.MethodPut, "/cards/"+in.CardID.String()+"/body", api.EditCardRequest{
			Body:      in.Body,
			Timestamp: in.Timestamp,
		}, nil)
	case intent.MoveCard:
		return c.do(ctx, http.MethodPut, "/cards/"+in.CardID.String()+"/move", api.MoveCardRequest{
			ColumnID:  in.ColumnID.String(),
			Order:     in.Order,
			Timestamp: in.Timestamp,
		}, nil)
	case intent.DeleteCard:
		return c.do(ctx, http.MethodDelete, deletePath("/cards/", in.CardID, in.Timestamp), nil, nil)
	}
	return fmt.Errorf("unsupported intent %T", in)
}

// Listen follows the board's change feed and calls onChange for every
// invalidation until ctx is done or the connection drops.
func (c *Client) Listen(ctx context.Context, boardID uuid.UUID, onChange func()) error {
	u, err := url.Parse(c.baseURL + "/boards/" + boardID.String() + "/events")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial events: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		var msg hub.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read events: %w", err)
		}
		if msg.Type == hub.TypeInvalidate && msg.BoardID == boardID {
			onChange()
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func deletePath(prefix string, id uuid.UUID, at int64) string {
	return prefix + id.String() + "?timestamp=" + strconv.FormatInt(at, 10)
}
