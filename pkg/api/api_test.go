package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudnebula/reddwarf/internal/secretbox"
	"github.com/cloudnebula/reddwarf/pkg/api"
	"github.com/cloudnebula/reddwarf/pkg/events"
	"github.com/cloudnebula/reddwarf/pkg/kv"
	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/types"
	"github.com/cloudnebula/reddwarf/pkg/version"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	return newTestServerWithBox(t, nil)
}

func newTestServerWithBox(t *testing.T, box *secretbox.Box) (*httptest.Server, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	e, err := kv.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	st := store.New(version.New(e), events.NewBroker())
	rtr := api.New(st, box)
	srv := httptest.NewServer(rtr.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(rtr.Shutdown)
	return srv, st
}

func podBody(name string) []byte {
	p := types.Pod{
		TypeMeta:   types.TypeMeta{APIVersion: "v1", Kind: "Pod"},
		ObjectMeta: types.ObjectMeta{Name: name},
		Spec: types.PodSpec{
			Containers: []types.Container{{Name: "c", Image: "nginx:latest"}},
		},
	}
	raw, _ := json.Marshal(p)
	return raw
}

// scenario (a): create, get, update, delete.
func TestCreateGetUpdateDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/namespaces/default/pods", "application/json", jsonReader(podBody("p1")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.Pod
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotEmpty(t, created.ObjectMeta.ResourceVersion)

	resp, err = http.Get(srv.URL + "/api/v1/namespaces/default/pods/p1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	created.Spec.Containers[0].Image = "nginx:1.27"
	body, _ := json.Marshal(created)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/namespaces/default/pods/p1", jsonReader(body))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/namespaces/default/pods/p1", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted types.Pod
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleted))
	resp.Body.Close()
	require.NotNil(t, deleted.ObjectMeta.DeletionTimestamp)
}

// scenario (b): a PUT carrying a stale resourceVersion is rejected with a conflict.
func TestStalePutConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := http.Post(srv.URL+"/api/v1/namespaces/default/pods", "application/json", jsonReader(podBody("p1")))
	var created types.Pod
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	staleBody, _ := json.Marshal(created)

	created.Spec.Containers[0].Image = "nginx:1.27"
	firstUpdate, _ := json.Marshal(created)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/namespaces/default/pods/p1", jsonReader(firstUpdate))
	resp, _ = http.DefaultClient.Do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/api/v1/namespaces/default/pods/p1", jsonReader(staleBody))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

// scenario (c): creating a resource that already exists is rejected.
func TestDuplicateCreateConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := http.Post(srv.URL+"/api/v1/namespaces/default/pods", "application/json", jsonReader(podBody("p1")))
	resp.Body.Close()

	resp, err := http.Post(srv.URL+"/api/v1/namespaces/default/pods", "application/json", jsonReader(podBody("p1")))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

// scenario (d): a cross-namespace list returns resources from every namespace.
func TestCrossNamespaceList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := http.Post(srv.URL+"/api/v1/namespaces/default/pods", "application/json", jsonReader(podBody("p1")))
	resp.Body.Close()

	nsBody, _ := json.Marshal(types.Namespace{
		TypeMeta:   types.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: types.ObjectMeta{Name: "other"},
	})
	resp, err := http.Post(srv.URL+"/api/v1/namespaces", "application/json", jsonReader(nsBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, _ = http.Post(srv.URL+"/api/v1/namespaces/other/pods", "application/json", jsonReader(podBody("p2")))
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/pods")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	resp.Body.Close()
	require.Len(t, all, 2)
}

// scenario (f): a Node GET/create round-trip through the cluster-scoped route.
func TestNodeCreateGet(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(types.Node{
		TypeMeta:   types.TypeMeta{APIVersion: "v1", Kind: "Node"},
		ObjectMeta: types.ObjectMeta{Name: "n1"},
		Spec:       types.NodeSpec{Address: "10.0.0.1"},
	})
	resp, err := http.Post(srv.URL+"/api/v1/nodes", "application/json", jsonReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/nodes/n1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/livez", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

// Secret payloads are sealed before they reach the version store and
// opened again on every read; this exercises that round trip plus a
// patch that leaves spec.data untouched.
func TestSecretEncryptedAtRest(t *testing.T) {
	box, err := secretbox.New(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	srv, st := newTestServerWithBox(t, box)

	body, _ := json.Marshal(types.Secret{
		TypeMeta:   types.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: types.ObjectMeta{Name: "s1"},
		Spec:       types.SecretSpec{Type: "Opaque", Data: []byte("hunter2")},
	})
	resp, err := http.Post(srv.URL+"/api/v1/namespaces/default/secrets", "application/json", jsonReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.Secret
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, []byte("hunter2"), created.Spec.Data)

	raw, _, err := st.Get(types.GVKSecret, types.ResourceKey{Namespace: "default", Name: "s1"})
	require.NoError(t, err)
	var stored types.Secret
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.NotEqual(t, []byte("hunter2"), stored.Spec.Data)

	resp, err = http.Get(srv.URL + "/api/v1/namespaces/default/secrets/s1")
	require.NoError(t, err)
	var fetched types.Secret
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	resp.Body.Close()
	require.Equal(t, []byte("hunter2"), fetched.Spec.Data)

	patch := []byte(`{"metadata":{"labels":{"env":"prod"}}}`)
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/v1/namespaces/default/secrets/s1", jsonReader(patch))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched types.Secret
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&patched))
	resp.Body.Close()
	require.Equal(t, []byte("hunter2"), patched.Spec.Data)
	require.Equal(t, "prod", patched.ObjectMeta.Labels["env"])
}

func jsonReader(b []byte) io.Reader { return bytes.NewReader(b) }
