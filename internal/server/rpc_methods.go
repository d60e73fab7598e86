package server

import (
	"context"
	"errors"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/api"
	"github.com/warpdl/ttcsync/internal/finder"
	"github.com/warpdl/ttcsync/internal/secscope"
	"github.com/warpdl/ttcsync/internal/settings"
	"github.com/warpdl/ttcsync/internal/updater"
	"github.com/warpdl/ttcsync/pkg/logger"
)

// Custom JSON-RPC error codes.
const (
	CodeBusy          = jrpc2.Code(common.CodeBusy)
	CodeNotConfigured = jrpc2.Code(common.CodeNotConfigured)
	CodeNotFound      = jrpc2.Code(common.CodeNotFound)
	CodeInvalidParams = jrpc2.Code(common.CodeInvalidParams)
	codeInternal      = jrpc2.Code(-32603)
)

// RPCServer holds the JSON-RPC method table and the HTTP bridge.
type RPCServer struct {
	api      *api.Api
	methods  handler.Map
	bridge   jhttp.Bridge
	notifier *RPCNotifier
	log      logger.Logger
}

func NewRPCServer(a *api.Api, notifier *RPCNotifier, l logger.Logger) *RPCServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	rs := &RPCServer{api: a, notifier: notifier, log: l}
	rs.methods = handler.Map{
		common.MethodGetVersion:        handler.New(rs.systemGetVersion),
		common.MethodStatus:            handler.New(rs.statusGet),
		common.MethodTriggerUpdate:     handler.New(rs.updateTrigger),
		common.MethodSetRegion:         handler.New(rs.settingsSetRegion),
		common.MethodSetInterval:       handler.New(rs.settingsSetInterval),
		common.MethodSearchDestination: handler.New(rs.destinationSearch),
		common.MethodSetDestination:    handler.New(rs.destinationSet),
		common.MethodClearDestination:  handler.New(rs.destinationClear),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// Close shuts down the HTTP bridge.
func (rs *RPCServer) Close() error {
	return rs.bridge.Close()
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResult, error) {
	return rs.api.Version(), nil
}

func (rs *RPCServer) statusGet(ctx context.Context) (*common.StatusResult, error) {
	st, err := rs.api.Status(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	return st, nil
}

func (rs *RPCServer) updateTrigger(ctx context.Context) (*common.TriggerResult, error) {
	started, err := rs.api.TriggerUpdate(ctx)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.TriggerResult{Started: started}, nil
}

func (rs *RPCServer) settingsSetRegion(ctx context.Context, p *common.RegionParams) (*common.EmptyResult, error) {
	if p.Region == "" {
		return nil, &jrpc2.Error{Code: CodeInvalidParams, Message: "missing required param: region"}
	}
	if err := rs.api.SetRegion(ctx, p.Region); err != nil {
		return nil, rpcError(err)
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) settingsSetInterval(ctx context.Context, p *common.IntervalParams) (*common.EmptyResult, error) {
	if err := rs.api.SetInterval(ctx, p.Seconds); err != nil {
		return nil, rpcError(err)
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) destinationSearch(ctx context.Context, p *common.SearchParams) (*common.DestinationResult, error) {
	path, err := rs.api.SearchDestination(ctx, p.Roots)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.DestinationResult{Path: path}, nil
}

func (rs *RPCServer) destinationSet(ctx context.Context, p *common.PathParams) (*common.DestinationResult, error) {
	if p.Path == "" {
		return nil, &jrpc2.Error{Code: CodeInvalidParams, Message: "missing required param: path"}
	}
	path, err := rs.api.SetDestination(ctx, p.Path)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.DestinationResult{Path: path}, nil
}

func (rs *RPCServer) destinationClear(ctx context.Context) (*common.EmptyResult, error) {
	if err := rs.api.ClearDestination(ctx); err != nil {
		return nil, rpcError(err)
	}
	return &common.EmptyResult{}, nil
}

// rpcError maps domain errors onto JSON-RPC error codes.
func rpcError(err error) error {
	var (
		unresolvable *secscope.UnresolvableResourceError
		code         = codeInternal
	)
	switch {
	case errors.Is(err, updater.ErrUpdateInProgress), errors.Is(err, api.ErrSearchInProgress):
		code = CodeBusy
	case errors.Is(err, updater.ErrNotConfigured):
		code = CodeNotConfigured
	case errors.Is(err, finder.ErrNotFound), errors.Is(err, os.ErrNotExist), errors.As(err, &unresolvable):
		code = CodeNotFound
	case errors.Is(err, settings.ErrInvalidRegion), errors.Is(err, settings.ErrIntervalTooShort),
		errors.Is(err, api.ErrNotDirectory):
		code = CodeInvalidParams
	}
	return &jrpc2.Error{Code: code, Message: err.Error()}
}
