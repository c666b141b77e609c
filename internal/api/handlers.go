package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xtding233/dicepool-sim/internal/config"
	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
	"github.com/xtding233/dicepool-sim/internal/store"
	"github.com/xtding233/dicepool-sim/internal/sweep"
)

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("request body too large")
)

// maxComboDice bounds /combinations output.
const maxComboDice = 20

// HandRequest is shared by the hand and simulate endpoints.
type HandRequest struct {
	Scenario string   `json:"scenario,omitempty"`
	Colors   []string `json:"colors,omitempty"`
	Rerolls  *int     `json:"rerolls,omitempty"`
	Blanks   *bool    `json:"blanks,omitempty"`
	Crits    *bool    `json:"crits,omitempty"`
	Seed     *uint64  `json:"seed,omitempty"`
	Trials   *int     `json:"trials,omitempty"`
	Workers  *int     `json:"workers,omitempty"`
}

func (r HandRequest) overrides() config.Overrides {
	return config.Overrides{
		Colors:  r.Colors,
		Rerolls: r.Rerolls,
		Blanks:  r.Blanks,
		Crits:   r.Crits,
		Seed:    r.Seed,
		Trials:  r.Trials,
		Workers: r.Workers,
	}
}

type DieView struct {
	Color    dice.Color `json:"color"`
	Value    int        `json:"value"`
	Blank    bool       `json:"blank"`
	Critical bool       `json:"critical"`
	Chained  bool       `json:"chained"`
}

type HandResponse struct {
	Dice             []DieView `json:"dice"`
	Sum              int       `json:"sum"`
	Miss             bool      `json:"miss"`
	BlankCount       int       `json:"blank_count"`
	Rerolled         int       `json:"rerolled"`
	RerollsRemaining int       `json:"rerolls_remaining"`
	Chained          int       `json:"chained"`
}

type SimulateResponse struct {
	Colors       []dice.Color `json:"colors"`
	Rerolls      int          `json:"rerolls"`
	Trials       int          `json:"trials"`
	Blanks       bool         `json:"blanks"`
	Crits        bool         `json:"crits"`
	Seed         uint64       `json:"seed,omitempty"`
	Stats        sim.Stats    `json:"stats"`
	Distribution []sim.Point  `json:"distribution"`
	ElapsedMs    int64        `json:"elapsed_ms"`
}

type DistributionRequest struct {
	Values []int `json:"values"`
}

type DistributionResponse struct {
	Distribution []sim.Point `json:"distribution"`
}

type CombinationsResponse struct {
	Dice         int            `json:"dice"`
	Colors       []dice.Color   `json:"colors"`
	Count        int            `json:"count"`
	Combinations [][]dice.Color `json:"combinations"`
}

type ProfileView struct {
	Color dice.Color  `json:"color"`
	Faces []dice.Face `json:"faces"`
}

type RunResultsResponse struct {
	Run     *store.Run           `json:"run"`
	Results []store.StoredResult `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleHand(w http.ResponseWriter, r *http.Request) {
	var req HandRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	_, p, err := s.resolver.Resolve(req.Scenario, req.overrides())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(p.Trial.Colors) == 0 {
		s.writeError(w, fmt.Errorf("%w: at least one color is required", errBadRequest))
		return
	}

	rng := dice.DefaultRNG()
	if p.Trial.Seed != 0 {
		rng = dice.NewSeededRNG(p.Trial.Seed, 0)
	}
	h, err := dice.DealHand(p.Registry, p.Trial.Colors, p.Trial.Rerolls, p.Trial.Blanks, p.Trial.Crits, rng)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, handView(h, len(p.Trial.Colors)))
}

func handView(h *dice.Hand, original int) HandResponse {
	ds := h.Dice()
	views := make([]DieView, len(ds))
	for i, d := range ds {
		views[i] = DieView{
			Color:    d.Color(),
			Value:    d.Value(),
			Blank:    d.Blank(),
			Critical: d.Critical(),
			Chained:  i >= original,
		}
	}
	return HandResponse{
		Dice:             views,
		Sum:              h.Sum(),
		Miss:             h.Miss(),
		BlankCount:       h.BlankCount(),
		Rerolled:         h.Rerolled(),
		RerollsRemaining: h.RerollsRemaining(),
		Chained:          h.Chained(),
	}
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req HandRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	_, p, err := s.resolver.Resolve(req.Scenario, req.overrides())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(p.Trial.Colors) == 0 {
		s.writeError(w, fmt.Errorf("%w: at least one color is required", errBadRequest))
		return
	}
	if s.maxTrials > 0 && p.Trial.Trials > s.maxTrials {
		s.writeError(w, fmt.Errorf("%w: trials must be <= %d", errBadRequest, s.maxTrials))
		return
	}

	start := time.Now()
	sample, err := sim.RunTrials(r.Context(), p.Registry, p.Trial)
	if err != nil {
		if r.Context().Err() != nil {
			// the timeout middleware answers expired requests
			s.logger.Warn("http.abandoned", "path", r.URL.Path, "err", err)
			return
		}
		s.writeError(w, err)
		return
	}
	dist, err := sim.Estimate(sample.Values())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SimulateResponse{
		Colors:       p.Trial.Colors,
		Rerolls:      p.Trial.Rerolls,
		Trials:       p.Trial.Trials,
		Blanks:       p.Trial.Blanks,
		Crits:        p.Trial.Crits,
		Seed:         p.Trial.Seed,
		Stats:        sim.Summarize(sample),
		Distribution: dist.Rows(),
		ElapsedMs:    time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	var req DistributionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	for _, v := range req.Values {
		if v > s.maxOutcome {
			s.writeError(w, fmt.Errorf("%w: values must be <= %d", errBadRequest, s.maxOutcome))
			return
		}
	}
	dist, err := sim.Estimate(req.Values)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DistributionResponse{Distribution: dist.Rows()})
}

func (s *Server) handleCombinations(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("dice"))
	if err != nil || n < 1 || n > maxComboDice {
		s.writeError(w, fmt.Errorf("%w: dice must be an integer in [1,%d]", errBadRequest, maxComboDice))
		return
	}
	_, p, err := s.resolver.Resolve(r.URL.Query().Get("scenario"), config.Overrides{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	colors := p.Sweep.Colors
	if len(colors) == 0 {
		colors = p.Registry.GameColors()
	}
	s.writeJSON(w, http.StatusOK, CombinationsResponse{
		Dice:         n,
		Colors:       colors,
		Count:        sweep.CountCombinations(n, len(colors)),
		Combinations: sweep.Combinations(colors, n),
	})
}

func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	_, p, err := s.resolver.Resolve(r.URL.Query().Get("scenario"), config.Overrides{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	var out []ProfileView
	for _, c := range p.Registry.Colors() {
		prof, _ := p.Registry.Profile(c)
		out = append(out, ProfileView{Color: c, Faces: prof.Faces[:]})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.resolver.(ScenarioLister)
	if !ok {
		s.writeJSON(w, http.StatusOK, []string{})
		return
	}
	names, err := lister.Scenarios()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, store.ErrNotFound)
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunResults(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, store.ErrNotFound)
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	results, err := s.store.ListResults(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if results == nil {
		results = []store.StoredResult{}
	}
	s.writeJSON(w, http.StatusOK, RunResultsResponse{Run: run, Results: results})
}

func (s *Server) handleResultDistribution(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, store.ErrNotFound)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid result id", errBadRequest))
		return
	}
	dist, err := s.store.Distribution(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DistributionResponse{Distribution: dist.Rows()})
}
