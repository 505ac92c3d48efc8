package lsp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/treeguides/internal/hittest"
)

// ErrBadArguments is returned for a command called with unusable arguments.
var ErrBadArguments = errors.New("bad command arguments")

// hiddenIndentsArgs is [uri, startLine, endLine].
type hiddenIndentsArgs struct {
	URI   protocol.DocumentUri
	Lines hittest.LineRange
}

func parseHiddenIndentsArgs(args []any) (hiddenIndentsArgs, error) {
	var out hiddenIndentsArgs
	if len(args) != 3 {
		return out, fmt.Errorf("%s: want 3 arguments, got %d: %w", HiddenIndentsCommand, len(args), ErrBadArguments)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("%s: %w", HiddenIndentsCommand, err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("%s: %w", HiddenIndentsCommand, err)
	}
	if err := json.Unmarshal(raw[0], &out.URI); err != nil {
		return out, fmt.Errorf("%s: uri: %w", HiddenIndentsCommand, ErrBadArguments)
	}
	if err := json.Unmarshal(raw[1], &out.Lines.Start); err != nil {
		return out, fmt.Errorf("%s: start line: %w", HiddenIndentsCommand, ErrBadArguments)
	}
	if err := json.Unmarshal(raw[2], &out.Lines.End); err != nil {
		return out, fmt.Errorf("%s: end line: %w", HiddenIndentsCommand, ErrBadArguments)
	}
	return out, nil
}

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	if params.Command != HiddenIndentsCommand {
		return nil, nil
	}
	if s.scheduler == nil {
		return false, nil
	}
	args, err := parseHiddenIndentsArgs(params.Arguments)
	if err != nil {
		return nil, err
	}

	var hidden bool
	err = s.scheduler.Do("hidden indents "+args.URI, func() error {
		if d, ok := s.docs[args.URI]; ok {
			hidden = d.pass.IsGuideHidden(args.Lines)
		}
		return nil
	})
	return hidden, err
}
