package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/jobboard/internal/testutil"
)

func Test_run(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	noenv := func(string) string { return "" }
	wd := func() (string, error) { return t.TempDir(), nil }

	t.Run("serve and stop with context", func(t *testing.T) {
		port, err := testutil.RandomPort()
		require.NoError(t, err, "failed to get random port to start server")
		listenAddr := fmt.Sprintf("localhost:%d", port)

		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)

		done := make(chan error, 1)
		go func() {
			done <- run(ctx, noenv, wd, []string{
				"--address", listenAddr,
				"--log-level", "debug",
				"--environment", "development",
				"--database", pg.DSN,
				"--secret-key", "secret",
			})
		}()

		// Public endpoint answers once server is up
		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + listenAddr + "/api/v1/postJobs/getAllJobs")
			if err != nil {
				return false
			}
			_ = resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 5*time.Second, 50*time.Millisecond)

		cancel()

		select {
		case err := <-done:
			require.NoError(t, err, "on correct stop should not return error")
		case <-time.After(10 * time.Second):
			t.Fatal("server not stopped")
		}
	})

	t.Run("fail without secret key", func(t *testing.T) {
		port, err := testutil.RandomPort()
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		t.Cleanup(cancel)

		err = run(ctx, noenv, wd, []string{
			"--address", fmt.Sprintf("localhost:%d", port),
			"--database", pg.DSN,
		})

		require.ErrorContains(t, err, "secret key is required")
	})

	t.Run("fail without smtp in production", func(t *testing.T) {
		err := run(t.Context(), noenv, wd, []string{
			"--database", pg.DSN,
			"--secret-key", "secret",
		})

		require.ErrorContains(t, err, "SMTP host is required")
	})

	t.Run("fail on bad flag", func(t *testing.T) {
		err := run(t.Context(), noenv, wd, []string{"--unknown"})
		require.Error(t, err)
	})
}
