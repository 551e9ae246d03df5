package livereload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Listen connects to a live-reload server at rawURL and writes one JSON line
// per received event to out until ctx is done. A failed connection attempt
// is returned as an error.
func Listen(ctx context.Context, rawURL string, out io.Writer) error {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("failed to parse URL: %q is not absolute", rawURL)
	}
	path := parsedURL.Path
	if path == "" || path == "/" {
		path = SocketPath
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	client := manager.Socket("/", opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		client.Disconnect()
	}()

	var mu sync.Mutex
	write := func(event string, data ...any) {
		line := map[string]any{"event": event}
		if len(data) > 0 {
			line["data"] = data[0]
		}
		b, err := json.Marshal(line)
		if err != nil {
			logger.Warn("Cannot encode event.", "event", event, "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, string(b))
	}

	failed := make(chan error, 1)
	client.On(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", client.Id())
	})
	client.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("connect failed: %w", e)
			}
		}
		select {
		case failed <- err:
		default:
		}
	})
	for _, event := range []string{EventReload, EventBuildError} {
		client.On(types.EventName(event), func(data ...any) { write(event, data...) })
	}

	client.Connect()

	select {
	case <-ctx.Done():
		return nil
	case err := <-failed:
		return err
	}
}
