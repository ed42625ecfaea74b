package api

import (
	"bufio"
	"encoding/json"
	"net/http"

	"github.com/cloudnebula/reddwarf/internal/apierror"
	"github.com/cloudnebula/reddwarf/internal/rdlog"
	"github.com/cloudnebula/reddwarf/internal/secretbox"
	"github.com/cloudnebula/reddwarf/pkg/metrics"
	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

// watchLine is the wire shape of one line of a watch stream (spec §6):
// line-delimited JSON, one object per line, no enclosing array.
type watchLine struct {
	Type   types.WatchEventType `json:"type"`
	Object json.RawMessage      `json:"object"`
}

// serveWatch implements the ?watch=true branch of listHandler. It first
// replays history since the caller's resourceVersion (or, if none was
// supplied, emits a synthetic ADDED for every resource currently live),
// then tails the broker until the client disconnects, the server begins
// a graceful shutdown, or the subscription overflows.
func serveWatch(w http.ResponseWriter, r *http.Request, st *store.Store, kc kindConfig, box *secretbox.Box, namespace string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierror.New(apierror.KindInternal, "streaming not supported"))
		return
	}

	sub := st.Broker().Subscribe(kc.gvk, namespace)
	defer st.Broker().Unsubscribe(sub)
	metrics.WatchSubscribersTotal.WithLabelValues(kc.gvk.Kind).Inc()
	defer metrics.WatchSubscribersTotal.WithLabelValues(kc.gvk.Kind).Dec()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Transfer-Encoding", "chunked")
	w.WriteHeader(http.StatusOK)
	bw := bufio.NewWriter(w)

	rv := r.URL.Query().Get("resourceVersion")
	if rv != "" {
		cursor, err := st.CommitSeq(rv)
		if err != nil {
			writeError(w, err)
			return
		}
		replay, err := st.ReplaySince(kc.gvk, namespace, cursor)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, ev := range replay {
			object, err := openSecretForWatch(box, kc, ev.Object)
			if err != nil {
				return
			}
			if !writeWatchLine(bw, ev.Type, object) {
				return
			}
		}
	} else {
		current, err := st.List(kc.gvk, namespace)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, obj := range current {
			object, err := openSecretForWatch(box, kc, obj)
			if err != nil {
				return
			}
			if !writeWatchLine(bw, types.WatchAdded, object) {
				return
			}
		}
	}
	bw.Flush()
	flusher.Flush()

	shutdown := shutdownSignal(r)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-shutdown:
			writeBookmark(bw, st, kc.gvk)
			bw.Flush()
			flusher.Flush()
			return
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if ev.Type == types.WatchGone {
				metrics.WatchOverflowsTotal.WithLabelValues(kc.gvk.Kind).Inc()
				rdlog.WithComponent("api").Warn().Str("gvk", kc.gvk.Kind).Msg("watch subscriber overflowed, closing")
				goneObject, _ := json.Marshal(map[string]string{"resourceVersion": ev.ResourceVersion})
				writeWatchLine(bw, types.WatchGone, goneObject)
				bw.Flush()
				flusher.Flush()
				return
			}
			object, err := openSecretForWatch(box, kc, ev.Object)
			if err != nil {
				return
			}
			if !writeWatchLine(bw, ev.Type, object) {
				return
			}
			bw.Flush()
			flusher.Flush()
		}
	}
}

// openSecretForWatch decrypts a Secret object before it reaches a watch
// stream; every other kind passes through unchanged.
func openSecretForWatch(box *secretbox.Box, kc kindConfig, object json.RawMessage) (json.RawMessage, error) {
	if kc.gvk != types.GVKSecret || object == nil {
		return object, nil
	}
	return openSecret(box, object)
}

func writeWatchLine(bw *bufio.Writer, eventType types.WatchEventType, object json.RawMessage) bool {
	if object == nil {
		object = json.RawMessage("{}")
	}
	line, err := json.Marshal(watchLine{Type: eventType, Object: object})
	if err != nil {
		return false
	}
	if _, err := bw.Write(line); err != nil {
		return false
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return false
	}
	return true
}

// writeBookmark emits the final BOOKMARK event a graceful shutdown sends
// before closing every open watch (spec §6).
func writeBookmark(bw *bufio.Writer, st *store.Store, gvk types.GVK) {
	last, err := st.ReplaySince(gvk, "", 0)
	lastRV := ""
	if err == nil && len(last) > 0 {
		lastRV = last[len(last)-1].ResourceVersion
	}
	bookmark := map[string]string{"resourceVersion": lastRV}
	encoded, _ := json.Marshal(bookmark)
	writeWatchLine(bw, types.WatchBookmark, encoded)
}

// shutdownSignal returns the server-wide shutdown channel reachable from
// the request, or a channel that never fires if none was attached.
func shutdownSignal(r *http.Request) <-chan struct{} {
	if rtr, ok := r.Context().Value(routerContextKey{}).(*Router); ok {
		return rtr.shutdown
	}
	return make(chan struct{})
}
