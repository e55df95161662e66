package shardserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/shardclient"
)

func newTestServer() *httptest.Server {
	return httptest.NewServer(NewHandler(shardclient.NewInMemoryShardClient()))
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_AddAndListUsers(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv.URL+"/users/add", map[string]string{"User": "alice"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	listResp := post(t, srv.URL+"/users/list", nil)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var body struct{ Values []string }
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&body))
	require.Equal(t, []string{"alice"}, body.Values)
}

func TestHandler_ContainsUser(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	post(t, srv.URL+"/users/add", map[string]string{"User": "alice"}).Body.Close()

	resp := post(t, srv.URL+"/users/contains", map[string]string{"User": "alice"})
	defer resp.Body.Close()
	var body struct{ Value bool }
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Value)
}

func TestHandler_UnknownUser_Returns422WithTypedEnvelope(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv.URL+"/user-to-group/list", map[string]any{"User": "nobody", "Indirect": false})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, "user_not_found", envelope.Code)
	require.Equal(t, "nobody", envelope.Arg1)
}

func TestHandler_UserToGroupMapping_RoundTrip(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	post(t, srv.URL+"/users/add", map[string]string{"User": "alice"}).Body.Close()
	post(t, srv.URL+"/groups/add", map[string]string{"Group": "admins"}).Body.Close()

	resp := post(t, srv.URL+"/user-to-group/add", map[string]string{"User": "alice", "Group": "admins"})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	listResp := post(t, srv.URL+"/user-to-group/list", map[string]any{"User": "alice", "Indirect": false})
	defer listResp.Body.Close()
	var body struct{ Values []string }
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&body))
	require.Equal(t, []string{"admins"}, body.Values)
}

func TestHandler_AccessChecks(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	post(t, srv.URL+"/users/add", map[string]string{"User": "alice"}).Body.Close()
	post(t, srv.URL+"/user-to-component/add", map[string]string{
		"User": "alice", "Component": "orders", "AccessLevel": "view",
	}).Body.Close()

	resp := post(t, srv.URL+"/access/component/user", map[string]string{
		"User": "alice", "Component": "orders", "AccessLevel": "view",
	})
	defer resp.Body.Close()
	var body struct{ Value bool }
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Value)
}
