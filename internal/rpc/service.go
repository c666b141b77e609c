package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/dicepool-sim/internal/config"
	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
	"github.com/xtding233/dicepool-sim/internal/sweep"
)

// SimulatorService implements the dicesim.v1.Simulator gRPC API.
type SimulatorService struct {
	resolver  config.Resolver
	logger    *slog.Logger
	maxTrials int
}

// NewSimulatorService creates a handler. maxTrials <= 0 disables the cap.
func NewSimulatorService(resolver config.Resolver, logger *slog.Logger, maxTrials int) *SimulatorService {
	if resolver == nil {
		resolver = config.Defaults{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatorService{resolver: resolver, logger: logger, maxTrials: maxTrials}
}

// RollHand deals and resolves a single hand.
func (s *SimulatorService) RollHand(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "roll hand request is required")
	}
	scenario, o, err := parseRequest(in)
	if err != nil {
		return nil, err
	}
	_, p, err := s.resolver.Resolve(scenario, o)
	if err != nil {
		return nil, s.toStatus(err)
	}
	if len(p.Trial.Colors) == 0 {
		return nil, status.Error(codes.InvalidArgument, "at least one color is required")
	}

	rng := dice.DefaultRNG()
	if p.Trial.Seed != 0 {
		rng = dice.NewSeededRNG(p.Trial.Seed, 0)
	}
	h, err := dice.DealHand(p.Registry, p.Trial.Colors, p.Trial.Rerolls, p.Trial.Blanks, p.Trial.Crits, rng)
	if err != nil {
		return nil, s.toStatus(err)
	}

	ds := h.Dice()
	views := make([]any, len(ds))
	for i, d := range ds {
		views[i] = map[string]any{
			"color":    string(d.Color()),
			"value":    d.Value(),
			"blank":    d.Blank(),
			"critical": d.Critical(),
			"chained":  i >= len(p.Trial.Colors),
		}
	}
	return newStruct(map[string]any{
		"dice":              views,
		"sum":               h.Sum(),
		"miss":              h.Miss(),
		"blank_count":       h.BlankCount(),
		"rerolled":          h.Rerolled(),
		"rerolls_remaining": h.RerollsRemaining(),
		"chained":           h.Chained(),
	})
}

// Simulate runs a Monte-Carlo estimate for one hand configuration.
func (s *SimulatorService) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "simulate request is required")
	}
	scenario, o, err := parseRequest(in)
	if err != nil {
		return nil, err
	}
	_, p, err := s.resolver.Resolve(scenario, o)
	if err != nil {
		return nil, s.toStatus(err)
	}
	if len(p.Trial.Colors) == 0 {
		return nil, status.Error(codes.InvalidArgument, "at least one color is required")
	}
	if s.maxTrials > 0 && p.Trial.Trials > s.maxTrials {
		return nil, status.Errorf(codes.InvalidArgument, "trials must be <= %d", s.maxTrials)
	}

	sample, err := sim.RunTrials(ctx, p.Registry, p.Trial)
	if err != nil {
		return nil, s.toStatus(err)
	}
	dist, err := sim.Estimate(sample.Values())
	if err != nil {
		return nil, s.toStatus(err)
	}
	st := sim.Summarize(sample)

	colors := make([]any, len(p.Trial.Colors))
	for i, c := range p.Trial.Colors {
		colors[i] = string(c)
	}
	return newStruct(map[string]any{
		"colors":  colors,
		"rerolls": p.Trial.Rerolls,
		"trials":  p.Trial.Trials,
		"blanks":  p.Trial.Blanks,
		"crits":   p.Trial.Crits,
		"seed":    strconv.FormatUint(p.Trial.Seed, 10),
		"stats": map[string]any{
			"trials":    st.Trials,
			"mean":      st.Mean,
			"var":       st.Var,
			"std_dev":   st.StdDev,
			"p50":       st.P50,
			"p90":       st.P90,
			"p99":       st.P99,
			"miss_rate": st.MissRate,
		},
		"distribution": pointsValue(dist.Rows()),
	})
}

func pointsValue(rows []sim.Point) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any{"value": r.Value, "pdf": r.PDF, "ccdf": r.CCDF}
	}
	return out
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// parseRequest reads the shared request fields:
// scenario, colors, rerolls, blanks, crits, seed, trials, workers.
func parseRequest(in *structpb.Struct) (string, config.Overrides, error) {
	var o config.Overrides
	var scenario string
	for key, v := range in.GetFields() {
		var err error
		switch key {
		case "scenario":
			scenario, err = stringField(key, v)
		case "colors":
			o.Colors, err = stringsField(key, v)
		case "rerolls":
			o.Rerolls, err = intField(key, v)
		case "trials":
			o.Trials, err = intField(key, v)
		case "workers":
			o.Workers, err = intField(key, v)
		case "blanks":
			o.Blanks, err = boolField(key, v)
		case "crits":
			o.Crits, err = boolField(key, v)
		case "seed":
			o.Seed, err = seedField(v)
		default:
			err = fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return "", config.Overrides{}, status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return scenario, o, nil
}

func stringField(key string, v *structpb.Value) (string, error) {
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s.StringValue, nil
}

func stringsField(key string, v *structpb.Value) ([]string, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%s must be a list of strings", key)
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s, err := stringField(key, item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func intField(key string, v *structpb.Value) (*int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	i := int(n.NumberValue)
	return &i, nil
}

func boolField(key string, v *structpb.Value) (*bool, error) {
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, fmt.Errorf("%s must be a bool", key)
	}
	return &b.BoolValue, nil
}

// seedField accepts a number or, for seeds above 2^53, a decimal string.
func seedField(v *structpb.Value) (*uint64, error) {
	var seed uint64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if k.NumberValue < 0 || k.NumberValue != math.Trunc(k.NumberValue) || k.NumberValue > 1<<53 {
			return nil, errors.New("seed must be a non-negative integer")
		}
		seed = uint64(k.NumberValue)
	case *structpb.Value_StringValue:
		n, err := strconv.ParseUint(k.StringValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seed: %v", err)
		}
		seed = n
	default:
		return nil, errors.New("seed must be a number or a decimal string")
	}
	return &seed, nil
}

func (s *SimulatorService) toStatus(err error) error {
	switch {
	case errors.Is(err, dice.ErrInvalidColor),
		errors.Is(err, dice.ErrUnsupportedPolicy),
		errors.Is(err, sim.ErrEmptySample),
		errors.Is(err, sim.ErrNegativeOutcome),
		errors.Is(err, sweep.ErrInvalidParams),
		errors.Is(err, config.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, config.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error("rpc.internal", "err", err)
		return status.Errorf(codes.Internal, "simulate: %v", err)
	}
}
