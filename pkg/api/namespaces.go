package api

import (
	"encoding/json"
	"errors"

	"github.com/cloudnebula/reddwarf/internal/apierror"
	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/types"
	"github.com/cloudnebula/reddwarf/pkg/version"
)

// ensureNamespaceExists enforces spec §3's namespace invariant:
// namespaced resources may only be created in a namespace that exists as
// a Namespace resource, except "default", which is created implicitly on
// first use.
func ensureNamespaceExists(st *store.Store, namespace string) *apierror.Error {
	_, _, err := st.Get(types.GVKNamespace, types.ResourceKey{Name: namespace})
	if err == nil {
		return nil
	}
	if !version.IsNotFound(err) {
		return apierror.From(err)
	}
	if namespace != types.DefaultNamespaceName {
		return apierror.New(apierror.KindInvalid, "namespace %q does not exist", namespace)
	}
	return bootstrapDefaultNamespace(st)
}

func bootstrapDefaultNamespace(st *store.Store) *apierror.Error {
	ns := types.Namespace{
		TypeMeta:   types.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: types.ObjectMeta{Name: types.DefaultNamespaceName},
		Status:     types.NamespaceStatus{Phase: types.NamespaceActive},
	}
	payload, err := json.Marshal(ns)
	if err != nil {
		return apierror.Wrap(apierror.KindInternal, err, "encode default namespace")
	}
	_, err = st.Create(types.GVKNamespace, types.ResourceKey{Name: types.DefaultNamespaceName}, payload)
	if err != nil && !errors.Is(err, version.ErrAlreadyExists) {
		return apierror.From(err)
	}
	return nil
}
