package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-chi/chi/v5"

	"github.com/cloudnebula/reddwarf/internal/apierror"
	"github.com/cloudnebula/reddwarf/internal/secretbox"
	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, err error) {
	aerr := apierror.From(err)
	writeJSON(w, aerr.HTTPStatus(), apierror.ToStatus(aerr))
}

func readBody(r *http.Request) (json.RawMessage, *apierror.Error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindBadRequest, err, "read request body")
	}
	return body, nil
}

func requestKey(r *http.Request) types.ResourceKey {
	return types.ResourceKey{
		Namespace: chi.URLParam(r, "namespace"),
		Name:      chi.URLParam(r, "name"),
	}
}

// createHandler implements POST {...}: spec §4.3 CREATE.
func createHandler(st *store.Store, kc kindConfig, box *secretbox.Box) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, berr := readBody(r)
		if berr != nil {
			writeError(w, berr)
			return
		}
		meta, verr := kc.validate(body)
		if verr != nil {
			writeError(w, verr)
			return
		}

		namespace := chi.URLParam(r, "namespace")
		if kc.namespaced {
			if meta.Namespace != "" && meta.Namespace != namespace {
				writeError(w, apierror.New(apierror.KindBadRequest,
					"metadata.namespace %q does not match URL namespace %q", meta.Namespace, namespace))
				return
			}
			if verr := ensureNamespaceExists(st, namespace); verr != nil {
				writeError(w, verr)
				return
			}
		}

		if kc.gvk == types.GVKSecret {
			sealed, err := sealSecret(box, body)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "seal secret"))
				return
			}
			body = sealed
		}

		key := types.ResourceKey{Namespace: namespace, Name: meta.Name}
		created, err := st.Create(kc.gvk, key, body)
		if err != nil {
			writeError(w, err)
			return
		}
		if kc.gvk == types.GVKSecret {
			opened, err := openSecret(box, created)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "open secret"))
				return
			}
			created = opened
		}
		writeRaw(w, http.StatusCreated, created)
	}
}

// getHandler implements GET {...}/{name}: spec §4.3 GET.
func getHandler(st *store.Store, kc kindConfig, box *secretbox.Box) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj, _, err := st.Get(kc.gvk, requestKey(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if kc.gvk == types.GVKSecret {
			opened, err := openSecret(box, obj)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "open secret"))
				return
			}
			obj = opened
		}
		writeRaw(w, http.StatusOK, obj)
	}
}

// listHandler implements GET {...}: spec §4.3 LIST, dispatching to
// serveWatch when ?watch=true is present (spec §4.3 Watch).
func listHandler(st *store.Store, kc kindConfig, box *secretbox.Box, crossNamespace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		namespace := ""
		if !crossNamespace {
			namespace = chi.URLParam(r, "namespace")
		}

		if r.URL.Query().Get("watch") == "true" {
			serveWatch(w, r, st, kc, box, namespace)
			return
		}

		objs, err := st.List(kc.gvk, namespace)
		if err != nil {
			writeError(w, err)
			return
		}
		if objs == nil {
			objs = []json.RawMessage{}
		}
		if kc.gvk == types.GVKSecret {
			for i, obj := range objs {
				opened, err := openSecret(box, obj)
				if err != nil {
					writeError(w, apierror.Wrap(apierror.KindInternal, err, "open secret"))
					return
				}
				objs[i] = opened
			}
		}
		writeJSON(w, http.StatusOK, objs)
	}
}

// replaceHandler implements PUT {...}/{name}: spec §4.3 REPLACE. The
// payload must carry the resourceVersion currently held by the resource.
func replaceHandler(st *store.Store, kc kindConfig, box *secretbox.Box) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, berr := readBody(r)
		if berr != nil {
			writeError(w, berr)
			return
		}
		meta, verr := kc.validate(body)
		if verr != nil {
			writeError(w, verr)
			return
		}
		if meta.ResourceVersion == "" {
			writeError(w, apierror.New(apierror.KindBadRequest, "metadata.resourceVersion is required for replace"))
			return
		}

		if kc.gvk == types.GVKSecret {
			sealed, err := sealSecret(box, body)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "seal secret"))
				return
			}
			body = sealed
		}

		updated, err := st.Replace(kc.gvk, requestKey(r), meta.ResourceVersion, body)
		if err != nil {
			writeError(w, err)
			return
		}
		if kc.gvk == types.GVKSecret {
			opened, err := openSecret(box, updated)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "open secret"))
				return
			}
			updated = opened
		}
		writeRaw(w, http.StatusOK, updated)
	}
}

// patchHandler implements PATCH {...}/{name}: spec §4.3 JSON-merge patch,
// read-merge-validate-PUT semantics.
func patchHandler(st *store.Store, kc kindConfig, box *secretbox.Box) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch, berr := readBody(r)
		if berr != nil {
			writeError(w, berr)
			return
		}

		key := requestKey(r)
		current, rv, err := st.Get(kc.gvk, key)
		if err != nil {
			writeError(w, err)
			return
		}

		if kc.gvk == types.GVKSecret {
			// The merge must run against plaintext, never against the
			// ciphertext held in the store, or a patch that leaves
			// spec.data untouched would merge a plaintext field into
			// what's actually stored encrypted.
			opened, err := openSecret(box, current)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "open secret"))
				return
			}
			merged, err := jsonpatch.MergePatch(opened, patch)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindBadRequest, err, "apply merge patch"))
				return
			}
			if _, verr := kc.validate(merged); verr != nil {
				writeError(w, verr)
				return
			}
			sealed, err := sealSecret(box, merged)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "seal secret"))
				return
			}
			updated, err := st.Replace(kc.gvk, key, rv, sealed)
			if err != nil {
				writeError(w, err)
				return
			}
			opened, err = openSecret(box, updated)
			if err != nil {
				writeError(w, apierror.Wrap(apierror.KindInternal, err, "open secret"))
				return
			}
			writeRaw(w, http.StatusOK, opened)
			return
		}

		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			writeError(w, apierror.Wrap(apierror.KindBadRequest, err, "apply merge patch"))
			return
		}
		if _, verr := kc.validate(merged); verr != nil {
			writeError(w, verr)
			return
		}

		patched, err := st.Patch(kc.gvk, key, rv, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeRaw(w, http.StatusOK, patched)
	}
}

// deleteHandler implements DELETE {...}/{name}: spec §4.3 soft delete.
// Setting phase=Terminating for kinds that track one is the controller's
// job once it observes the deletionTimestamp; this handler only records
// the timestamp.
func deleteHandler(st *store.Store, kc kindConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := requestKey(r)
		current, rv, err := st.Get(kc.gvk, key)
		if err != nil {
			writeError(w, err)
			return
		}

		meta, derr := decodeMeta(current)
		if derr != nil {
			writeError(w, apierror.Wrap(apierror.KindInternal, derr, "decode metadata"))
			return
		}
		if meta.Terminating() {
			writeRaw(w, http.StatusOK, current)
			return
		}

		withTimestamp, derr := withDeletionTimestamp(current, time.Now())
		if derr != nil {
			writeError(w, apierror.Wrap(apierror.KindInternal, derr, "set deletionTimestamp"))
			return
		}

		updated, err := st.Replace(kc.gvk, key, rv, withTimestamp)
		if err != nil {
			writeError(w, err)
			return
		}
		writeRaw(w, http.StatusOK, updated)
	}
}

// finalizeHandler implements POST {...}/{name}/finalize: the hard
// removal that follows a soft delete (spec §4.3).
func finalizeHandler(st *store.Store, kc kindConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := requestKey(r)
		_, rv, err := st.Get(kc.gvk, key)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := st.Finalize(kc.gvk, key, rv); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{})
	}
}
