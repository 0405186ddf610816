package dag

import (
	"context"
	"fmt"
	"strings"

	"tensord/internal/backend"
	"tensord/internal/store"
	"tensord/internal/tensor"
)

// CommandKind is a chained DAGRUN command.
type CommandKind int

const (
	CmdTensorSet CommandKind = iota
	CmdTensorGet
	CmdModelRun
)

func (k CommandKind) String() string {
	switch k {
	case CmdTensorSet:
		return "TENSORSET"
	case CmdTensorGet:
		return "TENSORGET"
	case CmdModelRun:
		return "MODELRUN"
	}
	return "UNKNOWN"
}

// Command is one parsed chained command.
type Command struct {
	Kind CommandKind
	Key  string
	// Tensor is the parsed TENSORSET value, owned by the command until run.
	Tensor *tensor.Handle

	Model   *backend.Model
	Inputs  []string
	Outputs []string
}

// ModelResolver looks models up by name.
type ModelResolver interface {
	Model(name string) (*backend.Model, error)
}

// Request is a parsed DAGRUN: the run descriptor populated by LOAD/PERSIST
// plus the chained commands.
type Request struct {
	Run      *RunInfo
	Commands []Command
}

// HasModelRun reports whether the request dispatches a model run.
func (r *Request) HasModelRun() bool {
	for _, c := range r.Commands {
		if c.Kind == CmdModelRun {
			return true
		}
	}
	return false
}

// Release frees everything the request still owns.
func (r *Request) Release() {
	for i := range r.Commands {
		r.Commands[i].Tensor.Release()
		r.Commands[i].Tensor = nil
	}
	r.Run.Free()
}

func trimPrefix(tok string) string {
	u := strings.ToUpper(tok)
	return strings.TrimPrefix(u, "AI.")
}

// ParseRequest parses
//
//	[DAGRUN] [LOAD n k…] [PERSIST n k…] |> cmd … |> cmd …
//
// LOAD resolves keys through g immediately. At most one MODELRUN is
// accepted. On error nothing is left loaded.
func ParseRequest(id string, args []string, g store.Getter, models ModelResolver, sep string) (*Request, error) {
	if sep == "" {
		sep = DefaultChainingOp
	}
	req := &Request{Run: NewRunInfo(id)}
	fail := func(err error) (*Request, error) {
		req.Release()
		return nil, err
	}
	pos := 0
	if len(args) > 0 && trimPrefix(args[0]) == "DAGRUN" {
		pos++
	}
	for pos < len(args) && !strings.EqualFold(args[pos], sep) {
		rest := args[pos:]
		var (
			n   int
			err error
		)
		switch trimPrefix(rest[0]) {
		case "LOAD":
			n, err = ParseLoad(rest, g, req.Run.Scope, sep)
		case "PERSIST":
			n, err = ParsePersist(rest, req.Run.Persist, sep)
		default:
			return fail(syntaxError{msg: fmt.Sprintf("ERR invalid DAGRUN argument %q", rest[0])})
		}
		if err != nil {
			return fail(err)
		}
		pos += n
	}

	modelRuns := 0
	for pos < len(args) {
		// args[pos] is the separator
		pos++
		end := pos
		for end < len(args) && !strings.EqualFold(args[end], sep) {
			end++
		}
		cmd, err := parseCommand(args[pos:end], models)
		if err != nil {
			return fail(err)
		}
		if cmd.Kind == CmdModelRun {
			modelRuns++
			if modelRuns > 1 {
				cmd.Tensor.Release()
				return fail(syntaxError{msg: "ERR only one MODELRUN is allowed per DAGRUN"})
			}
		}
		req.Commands = append(req.Commands, cmd)
		pos = end
	}
	if len(req.Commands) == 0 {
		return fail(syntaxError{msg: "ERR DAG is empty"})
	}
	return req, nil
}

func parseCommand(seg []string, models ModelResolver) (Command, error) {
	if len(seg) == 0 {
		return Command{}, syntaxError{msg: "ERR empty command in DAG"}
	}
	switch trimPrefix(seg[0]) {
	case "TENSORSET":
		if len(seg) < 4 {
			return Command{}, wrongArity("TENSORSET")
		}
		t, err := tensor.ParseArgs(seg[2:])
		if err != nil {
			return Command{}, syntaxError{msg: "ERR " + err.Error()}
		}
		return Command{Kind: CmdTensorSet, Key: seg[1], Tensor: t}, nil
	case "TENSORGET":
		if len(seg) != 2 {
			return Command{}, wrongArity("TENSORGET")
		}
		return Command{Kind: CmdTensorGet, Key: seg[1]}, nil
	case "MODELRUN":
		return parseModelRun(seg, models)
	}
	return Command{}, syntaxError{msg: fmt.Sprintf("ERR unsupported command within DAG: %s", seg[0])}
}

// parseModelRun handles MODELRUN name INPUTS i… OUTPUTS o….
func parseModelRun(seg []string, models ModelResolver) (Command, error) {
	if len(seg) < 4 {
		return Command{}, wrongArity("MODELRUN")
	}
	if models == nil {
		return Command{}, ErrModelNotFound(seg[1])
	}
	m, err := models.Model(seg[1])
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Kind: CmdModelRun, Model: m}
	var dst *[]string
	for _, tok := range seg[2:] {
		switch strings.ToUpper(tok) {
		case "INPUTS":
			dst = &cmd.Inputs
		case "OUTPUTS":
			dst = &cmd.Outputs
		default:
			if dst == nil {
				return Command{}, syntaxError{msg: "ERR INPUTS not specified"}
			}
			*dst = append(*dst, tok)
		}
	}
	if len(cmd.Inputs) == 0 {
		return Command{}, syntaxError{msg: "ERR INPUTS not specified"}
	}
	if len(cmd.Outputs) == 0 {
		return Command{}, syntaxError{msg: "ERR OUTPUTS not specified"}
	}
	return cmd, nil
}

// Dispatcher runs a prepared descriptor and returns it once executed.
type Dispatcher interface {
	Run(ctx context.Context, ri *RunInfo) (*RunInfo, error)
}

// Process executes req's commands in order against its scope, dispatching
// the model run through d, then materializes the persist set into s. Each
// command contributes one reply entry. An error return means the run could
// not be admitted and nothing was persisted.
func Process(ctx context.Context, req *Request, d Dispatcher, s store.Store) (*Reply, error) {
	ri := req.Run
	for i := range req.Commands {
		cmd := &req.Commands[i]
		switch cmd.Kind {
		case CmdTensorSet:
			ri.Scope.Put(cmd.Key, cmd.Tensor)
			cmd.Tensor = nil
			ri.Reply.AppendStatus("OK")
		case CmdTensorGet:
			t, ok := ri.Scope.Get(cmd.Key)
			if !ok {
				ri.Reply.AppendError(keyNotFoundError{key: cmd.Key})
				continue
			}
			ri.Reply.AppendTensor(t.ShallowCopy())
		case CmdModelRun:
			if err := ri.Prepare(cmd.Model, cmd.Inputs, cmd.Outputs); err != nil {
				ri.Reply.AppendError(err)
				continue
			}
			if _, err := d.Run(ctx, ri); err != nil {
				return nil, err
			}
			if ri.Status != StatusOK {
				ri.Reply.AppendError(runFailure(ri.Err))
				continue
			}
			ri.CollectOutputs()
			ri.Reply.AppendStatus("OK")
		}
	}
	Materialize(s, ri)
	return ri.Reply, nil
}
