package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pz "github.com/weberc2/httpeasy"
	pztest "github.com/weberc2/httpeasy/testsupport"

	"github.com/weberc2/easyfs/pkg/fs"
	"github.com/weberc2/easyfs/pkg/testsupport"
)

func readAll(s pz.Serializer) ([]byte, error) {
	writerTo, err := s()
	if err != nil {
		return nil, fmt.Errorf("executing serializer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writerTo.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("buffering response body: %w", err)
	}

	return buf.Bytes(), nil
}

func testServer(t *testing.T) *Server {
	fsys, _ := testsupport.NewImage(t, map[string]string{
		"/bin/init": "init",
		"/etc/motd": "hello, world",
		"/tmp/":     "",
	})
	return &Server{FS: fsys}
}

func TestServer_Stat(t *testing.T) {
	srv := testServer(t)
	rsp := srv.Stat(pz.Request{})
	require.Equal(t, http.StatusOK, rsp.Status)

	data, err := readAll(rsp.Data)
	require.NoError(t, err)
	var stat fs.Stat
	require.NoError(t, json.Unmarshal(data, &stat))
	assert.Equal(t, srv.FS.Superblock().VolumeID, stat.VolumeID)
	assert.EqualValues(t, testsupport.ImageBlocks, stat.TotalBlocks)
	// root, bin, etc, tmp, init, motd
	assert.EqualValues(t, 6, stat.UsedInodes)
}

func TestServer_Ls(t *testing.T) {
	for _, tc := range []struct {
		name     string
		path     string
		status   int
		expected []Entry
	}{
		{
			name:   "Root",
			path:   "",
			status: http.StatusOK,
			expected: []Entry{
				{Name: "bin", Ino: 1, Type: "Directory", Size: 96},
				{Name: "etc", Ino: 3, Type: "Directory", Size: 96},
				{Name: "tmp", Ino: 5, Type: "Directory", Size: 64},
			},
		},
		{
			name:   "Subdirectory",
			path:   "etc",
			status: http.StatusOK,
			expected: []Entry{
				{Name: ".", Ino: 3, Type: "Directory", Size: 96},
				{Name: "..", Ino: 0, Type: "Directory", Size: 96},
				{Name: "motd", Ino: 4, Type: "File", Size: 12},
			},
		},
		{
			name:   "File",
			path:   "bin/init",
			status: http.StatusOK,
			expected: []Entry{
				{Name: "/bin/init", Ino: 2, Type: "File", Size: 4},
			},
		},
		{name: "Missing", path: "nope", status: http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rsp := testServer(t).Ls(pz.Request{
				Vars: map[string]string{"path": tc.path},
			})
			require.Equal(t, tc.status, rsp.Status)
			if tc.expected == nil {
				return
			}
			data, err := readAll(rsp.Data)
			require.NoError(t, err)
			var listing Listing
			require.NoError(t, json.Unmarshal(data, &listing))
			assert.Equal(t, "/"+tc.path, listing.Path)
			assert.Equal(t, tc.expected, listing.Entries)
		})
	}
}

func TestServer_Cat(t *testing.T) {
	for _, tc := range []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"File", "etc/motd", http.StatusOK, "hello, world"},
		{"Directory", "etc", http.StatusBadRequest, "is a directory"},
		{"Missing", "etc/nope", http.StatusNotFound, "not found: /etc/nope"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rsp := testServer(t).Cat(pz.Request{
				Vars: map[string]string{"path": tc.path},
			})
			require.Equal(t, tc.status, rsp.Status)
			data, err := readAll(rsp.Data)
			require.NoError(t, err)
			assert.Equal(t, tc.body, string(data))
		})
	}
}

func TestServer_Routes(t *testing.T) {
	srv := httptest.NewServer(pz.Register(
		pztest.TestLog(t),
		testServer(t).Routes()...,
	))
	defer srv.Close()

	rsp, err := http.Get(srv.URL + "/api/cat/bin/init")
	require.NoError(t, err)
	defer rsp.Body.Close()
	require.Equal(t, http.StatusOK, rsp.StatusCode)
	data, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	assert.Equal(t, "init", string(data))
}
