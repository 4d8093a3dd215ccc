package grpc_control

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"market-sync/src/helpers"
	"market-sync/src/logger"
	"market-sync/src/router"
	"market-sync/src/utils"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService implements ControlServer on top of the endpoint router.
type ControlService struct {
	Router *router.Router
	Logger *logger.Logger
	Now    func() time.Time
}

// NewControlService creates a new instance of ControlService
func NewControlService(r *router.Router, log *logger.Logger) *ControlService {
	return &ControlService{
		Router: r,
		Logger: log,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) Health(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"status":    "ok",
		"timestamp": utils.FormatISO(s.Now()),
	})
}

// -----------------------------------------------------------------------------

func (s *ControlService) Modes(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	modes := s.Router.Modes()
	fields := make(map[string]interface{}, len(modes))
	for endpoint, mode := range modes {
		fields[endpoint] = mode
	}
	return structpb.NewStruct(fields)
}

// -----------------------------------------------------------------------------

// Ticker reads {"symbols": [...]} and answers {"items": [...]} from the
// configured ticker strategy.
func (s *ControlService) Ticker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var symbols []string
	if v, ok := req.GetFields()["symbols"]; ok {
		list := v.GetListValue()
		if list == nil {
			return nil, status.Error(codes.InvalidArgument, "symbols must be a list of strings")
		}
		raw := make([]string, 0, len(list.GetValues()))
		for _, item := range list.GetValues() {
			sym, ok := item.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "symbols must be a list of strings")
			}
			raw = append(raw, sym.StringValue)
		}
		symbols = utils.SplitSymbols(strings.Join(raw, ","))
	}

	items, err := s.Router.TickerSource().Tickers(ctx, symbols)
	if err != nil {
		s.Logger.Error("gRPC: ticker failed: %v", err)
		return nil, toStatus(err)
	}

	// Round-trip through JSON so prices keep their wire precision.
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode ticker: %v", err)
	}
	var generic []interface{}
	if err := json.Unmarshal(payload, &generic); err != nil {
		return nil, status.Errorf(codes.Internal, "encode ticker: %v", err)
	}

	return structpb.NewStruct(map[string]interface{}{"items": generic})
}

// -----------------------------------------------------------------------------

func toStatus(err error) error {
	switch {
	case helpers.IsValidationError(err):
		return status.Error(codes.InvalidArgument, helpers.PublicMessage(err))
	case helpers.IsConfigurationError(err):
		return status.Error(codes.FailedPrecondition, helpers.PublicMessage(err))
	case helpers.IsUpstreamError(err):
		return status.Error(codes.Unavailable, helpers.PublicMessage(err))
	case helpers.IsTimeoutError(err):
		return status.Error(codes.DeadlineExceeded, helpers.PublicMessage(err))
	}
	return status.Error(codes.Internal, helpers.PublicMessage(err))
}
