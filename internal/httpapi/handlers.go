package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tensord/internal/manager"
	"tensord/pkg/types"
)

type handlers struct {
	svc Service
}

// decodeJSON enforces the content type and body limit and decodes into v.
// It writes the error response itself and reports whether decoding worked.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// dagRun godoc
// @Summary      Run a DAG
// @Description  Executes LOAD/PERSIST blocks and chained commands in one request. Per-command and per-key failures are reply entries; a non-200 status means the request was rejected as a whole.
// @Tags         dag
// @Accept       json
// @Produce      json
// @Param        request  body      types.DagRunRequest  true  "DAGRUN tokens"
// @Success      200      {object}  types.DagRunResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /dagrun [post]
func (h *handlers) dagRun(w http.ResponseWriter, r *http.Request) {
	var req types.DagRunRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Args) == 0 {
		writeJSONError(w, http.StatusBadRequest, "args are required")
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "dagrun", map[string]any{"args": len(req.Args)})

	// Join server base context with request context so shutdown cancels admission too.
	ctx, cancel := runContext(r)
	defer cancel()
	resp, err := h.svc.RunDAG(ctx, req.Args)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := statusFor(err)
		countRejection(status)
		writeJSONError(w, status, err.Error())
		logEnd(r, lvl, "dagrun", status, start, err)
		return
	}
	writeJSON(w, resp)
	logEnd(r, lvl, "dagrun", http.StatusOK, start, nil)
}

// tensorSet godoc
// @Summary      Store a tensor
// @Tags         tensors
// @Accept       json
// @Produce      json
// @Param        key     path      string        true  "Key"
// @Param        tensor  body      types.Tensor  true  "Tensor"
// @Success      200     {object}  types.ReplyEntry
// @Failure      400     {object}  types.ErrorResponse
// @Router       /tensors/{key} [put]
func (h *handlers) tensorSet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var t types.Tensor
	if !decodeJSON(w, r, &t) {
		return
	}
	if err := h.svc.TensorSet(key, t); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, types.ReplyEntry{Status: "OK"})
}

// tensorGet godoc
// @Summary      Read a tensor
// @Tags         tensors
// @Produce      json
// @Param        key  path      string  true  "Key"
// @Success      200  {object}  types.Tensor
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /tensors/{key} [get]
func (h *handlers) tensorGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.TensorGet(chi.URLParam(r, "key"))
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, t)
}

// tensorDel godoc
// @Summary      Delete a key
// @Tags         tensors
// @Produce      json
// @Param        key  path      string  true  "Key"
// @Success      200  {object}  types.DeleteResponse
// @Router       /tensors/{key} [delete]
func (h *handlers) tensorDel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.DeleteResponse{Deleted: h.svc.Del(chi.URLParam(r, "key"))})
}

// listKeys godoc
// @Summary      List keys
// @Tags         tensors
// @Produce      json
// @Success      200  {object}  types.KeysResponse
// @Router       /tensors [get]
func (h *handlers) listKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.svc.Keys()
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, types.KeysResponse{Keys: keys})
}

var (
	_ Service     = (*manager.Manager)(nil)
	_ EventSource = (*manager.Manager)(nil)
)
