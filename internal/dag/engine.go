package dag

import (
	"fmt"
	"time"

	"tensord/internal/backend"
)

// Execute performs the model invocation for ri on the calling goroutine. It
// runs a fresh single-batch context seeded with shallow copies of ri's
// batch-0 inputs, copies the outputs back as shallow copies, fills the status,
// error slot and duration, and finally resumes a suspended caller.
func Execute(ri *RunInfo) {
	start := time.Now()
	defer ri.resume()
	defer func() {
		if r := recover(); r != nil {
			ri.setDuration(time.Since(start))
			ri.fail(backend.CodeModelRun, fmt.Sprintf("panic during model run: %v", r))
		}
	}()

	if ri.ModelCtx == nil {
		ri.setDuration(0)
		ri.fail(backend.CodeAlloc, "run has no model context")
		return
	}
	rctx, err := backend.NewRunCtx(ri.ModelCtx.Model)
	if err != nil {
		ri.setDuration(0)
		ri.fail(backend.CodeAlloc, err.Error())
		return
	}
	defer rctx.Free()
	id, err := rctx.AddBatch()
	if err != nil {
		ri.setDuration(0)
		ri.fail(backend.CodeAlloc, err.Error())
		return
	}
	if err := rctx.CopyBatch(id, ri.ModelCtx, 0); err != nil {
		ri.setDuration(0)
		ri.fail(backend.CodeAlloc, err.Error())
		return
	}

	start = time.Now()
	runErr := rctx.Run()
	ri.setDuration(time.Since(start))

	dst := ri.ModelCtx.Batches[0].Outputs
	for i := range dst {
		dst[i].Tensor.Release()
		dst[i].Tensor = nil
		if o := rctx.Output(id, i); o != nil {
			dst[i].Tensor = o.ShallowCopy()
		}
	}

	if runErr != nil {
		ri.Status = StatusError
		ri.Err = runErr.Clone()
		return
	}
	ri.Status = StatusOK
	ri.Err = nil
}
