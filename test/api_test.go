package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/eventbook/events-service/internal/app"
	"github.com/eventbook/events-service/internal/logger"
	internalhttp "github.com/eventbook/events-service/internal/server/http"
	"github.com/eventbook/events-service/internal/storage"
	"github.com/eventbook/events-service/internal/storagebuilder"
	"github.com/stretchr/testify/require"
)

var (
	serverHost  = "127.0.0.1"
	serverPort  = 9005
	storageType = "memory"
	serverURL   = ""
)

func TestMain(m *testing.M) {
	logger.PrepareLogger(logger.Config{Level: "ERROR"})

	if port := os.Getenv("TEST_HTTP_SERVER_PORT"); port != "" {
		serverPort, _ = strconv.Atoi(port)
	}
	if st := os.Getenv("TEST_STORAGE_TYPE"); st != "" {
		storageType = st
	}
	serverURL = fmt.Sprintf("http://%s", net.JoinHostPort(serverHost, strconv.Itoa(serverPort)))

	os.Exit(m.Run())
}

func startServer(t *testing.T) {
	t.Helper()
	stor, err := storagebuilder.New(storagebuilder.Config{StorageType: storageType})
	require.NoError(t, err)

	server := internalhttp.NewServer(
		internalhttp.Config{Host: serverHost, Port: serverPort},
		app.New(stor, nil),
	)
	go func() {
		server.Start(context.Background())
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
	})

	// Wait until the listener accepts connections.
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(serverHost, strconv.Itoa(serverPort)), 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 50*time.Millisecond)
}

func doRequest(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, serverURL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func TestEventAPI(t *testing.T) {
	startServer(t)

	code, body := doRequest(t, "POST", "/events", map[string]interface{}{
		"title": "Event 1", "location": "Hall", "date": "2024-12-12",
	})
	require.Equal(t, http.StatusCreated, code, string(body))

	var created storage.Event
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, int64(0), created.Version)

	code, body = doRequest(t, "PUT", "/events/"+created.ID, map[string]interface{}{
		"title": "Updated", "location": "Hall", "date": "2024-12-12", "version": 0,
	})
	require.Equal(t, http.StatusOK, code, string(body))
	var updated storage.Event
	require.NoError(t, json.Unmarshal(body, &updated))
	require.Equal(t, "Updated", updated.Title)
	require.Equal(t, int64(1), updated.Version)

	code, _ = doRequest(t, "PUT", "/events/"+created.ID, map[string]interface{}{
		"title": "Updated", "location": "Hall", "date": "2024-12-12", "version": 0,
	})
	require.Equal(t, http.StatusConflict, code)

	code, body = doRequest(t, "GET", "/events?location=Hall", nil)
	require.Equal(t, http.StatusOK, code)
	var listed []storage.Event
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "Updated", listed[0].Title)

	code, _ = doRequest(t, "DELETE", "/events/"+created.ID, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = doRequest(t, "DELETE", "/events/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, code)
}
