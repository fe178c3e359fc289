package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunarcal/internal/web"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bday_2025-2074.ics"), []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("private"), 0o600))

	ts := httptest.NewServer(web.NewServer(dir).Handler())
	t.Cleanup(ts.Close)
	return ts, dir
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func Test_Health(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func Test_Index_ListsOnlyCalendars(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "/bday_2025-2074.ics")
	assert.NotContains(t, body, "notes.txt")
}

func Test_ServeCalendarFile(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/bday_2025-2074.ics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	assert.Contains(t, readBody(t, resp), "BEGIN:VCALENDAR")
}

func Test_RejectsNonCalendarPaths(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{
		"/notes.txt",
		"/missing.ics",
		"/sub/evil.ics",
	} {
		resp := get(t, ts.URL+path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "path %s", path)
	}
}

func Test_RejectsNonGET(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/bday_2025-2074.ics", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
