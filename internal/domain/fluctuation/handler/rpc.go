// Package handler exposes the fluctuation service over connect RPCs and plain HTTP routes.
package handler

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/parser"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/repository"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/service"
	"github.com/FACorreiaa/sig-activa/pkg/interceptors"
	"github.com/FACorreiaa/sig-activa/pkg/rpc"
	"github.com/FACorreiaa/sig-activa/pkg/storage"
)

const FluctuationServiceName = "sigactiva.fluctuation.v1.FluctuationService"

const (
	AnalyzeProcedure  = "/" + FluctuationServiceName + "/Analyze"
	ListRunsProcedure = "/" + FluctuationServiceName + "/ListRuns"
	GetRunProcedure   = "/" + FluctuationServiceName + "/GetRun"
)

// AnalyzeRequest carries the workbook bytes, base64 encoded in JSON.
type AnalyzeRequest struct {
	FileName   string `json:"fileName"`
	Content    []byte `json:"content"`
	RekapSheet string `json:"rekapSheet,omitempty"`
}

type AnalyzeResponse struct {
	Result *model.Result `json:"result"`
}

type ListRunsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListRunsResponse struct {
	Runs []*service.RunSummary `json:"runs"`
}

type GetRunRequest struct {
	RunID string `json:"runId"`
}

type GetRunResponse struct {
	Run *service.RunSummary `json:"run"`
}

// FluctuationHandler implements the fluctuation connect procedures.
type FluctuationHandler struct {
	svc            *service.Service
	maxUploadBytes int64
}

func NewFluctuationHandler(svc *service.Service, maxUploadBytes int64) *FluctuationHandler {
	return &FluctuationHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Analyze parses the workbook and returns the intermediate result.
func (h *FluctuationHandler) Analyze(
	ctx context.Context,
	req *connect.Request[AnalyzeRequest],
) (*connect.Response[AnalyzeResponse], error) {
	if int64(len(req.Msg.Content)) > h.maxUploadBytes {
		return nil, connect.NewError(connect.CodeResourceExhausted, errors.New("workbook exceeds the upload limit"))
	}

	res, err := h.svc.Analyze(ctx, service.Upload{
		FileName:   req.Msg.FileName,
		Data:       req.Msg.Content,
		RekapSheet: req.Msg.RekapSheet,
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&AnalyzeResponse{Result: res}), nil
}

// ListRuns returns the caller's run history
func (h *FluctuationHandler) ListRuns(
	ctx context.Context,
	req *connect.Request[ListRunsRequest],
) (*connect.Response[ListRunsResponse], error) {
	runs, err := h.svc.ListRuns(ctx, ownerID(ctx), req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ListRunsResponse{Runs: runs}), nil
}

// GetRun returns one run of the caller
func (h *FluctuationHandler) GetRun(
	ctx context.Context,
	req *connect.Request[GetRunRequest],
) (*connect.Response[GetRunResponse], error) {
	runID, err := uuid.Parse(req.Msg.RunID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("invalid run ID"))
	}

	run, err := h.svc.GetRun(ctx, ownerID(ctx), runID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetRunResponse{Run: run}), nil
}

// NewFluctuationServiceHandler mounts the procedures under the service path, the way
// generated connect code does.
func NewFluctuationServiceHandler(h *FluctuationHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		rpc.WithJSON(),
		connect.WithReadMaxBytes(int(h.maxUploadBytes*2 + 1<<20)),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AnalyzeProcedure, connect.NewUnaryHandler(AnalyzeProcedure, h.Analyze, opts...))
	mux.Handle(ListRunsProcedure, connect.NewUnaryHandler(ListRunsProcedure, h.ListRuns, opts...))
	mux.Handle(GetRunProcedure, connect.NewUnaryHandler(GetRunProcedure, h.GetRun, opts...))
	return "/" + FluctuationServiceName + "/", mux
}

// ownerID maps the authenticated subject to a stable owner UUID. Subjects that are
// not UUIDs get a name-based UUID; unauthenticated callers share uuid.Nil.
func ownerID(ctx context.Context) uuid.UUID {
	subject, ok := interceptors.GetUserIDFromContext(ctx)
	if !ok || subject == "" {
		return uuid.Nil
	}
	if id, err := uuid.Parse(subject); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("sig-activa:user:"+subject))
}

func connectError(err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyUpload), errors.Is(err, parser.ErrUnreadableWorkbook):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, repository.ErrRunNotFound), errors.Is(err, storage.ErrFileNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrHistoryDisabled):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
