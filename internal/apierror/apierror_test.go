package apierror_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudnebula/reddwarf/internal/apierror"
	"github.com/cloudnebula/reddwarf/pkg/kv"
	"github.com/cloudnebula/reddwarf/pkg/version"
)

func TestFromClassifiesDomainSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apierror.Kind
	}{
		{"kv not found", kv.ErrNotFound, apierror.KindNotFound},
		{"kv already exists", kv.ErrAlreadyExists, apierror.KindAlreadyExists},
		{"version not found", version.ErrNotFound, apierror.KindNotFound},
		{"version already exists", version.ErrAlreadyExists, apierror.KindAlreadyExists},
		{"version conflict", &version.ConflictError{Expected: "a", Actual: "b"}, apierror.KindConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := apierror.From(tc.err)
			require.Equal(t, tc.kind, got.Kind)
		})
	}
}

func TestFromPassesThroughExistingError(t *testing.T) {
	orig := apierror.New(apierror.KindInvalid, "bad spec")
	got := apierror.From(orig)
	require.Same(t, orig, got)
}

func TestHTTPStatusMapping(t *testing.T) {
	require.Equal(t, http.StatusNotFound, apierror.New(apierror.KindNotFound, "x").HTTPStatus())
	require.Equal(t, http.StatusConflict, apierror.New(apierror.KindConflict, "x").HTTPStatus())
	require.Equal(t, http.StatusUnprocessableEntity, apierror.New(apierror.KindInvalid, "x").HTTPStatus())
}

func TestToStatusEnvelope(t *testing.T) {
	e := apierror.New(apierror.KindNotFound, "pod %q not found", "p1")
	st := apierror.ToStatus(e)
	require.Equal(t, "Failure", st.Status)
	require.Equal(t, "NotFound", st.Reason)
	require.Equal(t, http.StatusNotFound, st.Code)
}
