// Package shell implements the UCI protocol loop hosting the path integral
// sampler: it owns the board position, translates "go" into a move request
// through an adapter.Adapter, and falls back to the first legal move when
// the sampler declines to produce one.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/pathintegral/internal/adapter"
	"github.com/hailam/pathintegral/internal/backend"
	"github.com/hailam/pathintegral/internal/chess"
	"github.com/hailam/pathintegral/internal/pconfig"
	"github.com/hailam/pathintegral/internal/sampler"
)

// Shell implements the UCI protocol loop.
type Shell struct {
	controller *sampler.Controller
	adapter    *adapter.Adapter
	position   *chess.Position

	positionHashes []uint64

	out io.Writer
}

// New creates a Shell wired to a fresh Controller and backend.
func New(be backend.Backend) *Shell {
	controller := sampler.New(pconfig.DefaultConfig(), be)
	s := &Shell{
		controller: controller,
		position:   chess.NewPosition(),
		out:        os.Stdout,
	}
	s.adapter = adapter.New(controller, s)
	return s
}

// PublishInfo implements adapter.Sink: it writes one UCI "info" line per
// thinking-info record.
func (s *Shell) PublishInfo(info adapter.ThinkingInfo) {
	var parts []string
	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))
	parts = append(parts, fmt.Sprintf("seldepth %d", info.SelDepth))
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", int64(info.TimeMs)))
	if info.Nps > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", int64(info.Nps)))
	}
	parts = append(parts, fmt.Sprintf("multipv %d", info.MultiPV))
	if len(info.PV) > 0 {
		strs := make([]string, len(info.PV))
		for i, m := range info.PV {
			strs[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(strs, " "))
	}
	fmt.Fprintf(s.out, "info %s\n", strings.Join(parts, " "))
}

// PublishBestMove implements adapter.Sink: it writes the UCI "bestmove"
// line.
func (s *Shell) PublishBestMove(b adapter.BestMove) {
	fmt.Fprintf(s.out, "bestmove %s\n", b.Move.String())
}

// Run starts the UCI main loop, reading commands from stdin until "quit".
func (s *Shell) Run() {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			s.handleUCI()
		case "isready":
			fmt.Fprintln(s.out, "readyok")
		case "ucinewgame":
			s.handleNewGame()
		case "position":
			s.handlePosition(args)
		case "go":
			s.handleGo(args)
		case "stop":
			// Sampling is synchronous; there is no in-flight search to stop.
		case "quit":
			return
		case "setoption":
			s.handleSetOption(args)
		case "d":
			fmt.Fprintln(s.out, s.position.String())
		case "perft":
			s.handlePerft(args)
		}
	}
}

func (s *Shell) handleUCI() {
	fmt.Fprintln(s.out, "id name PathIntegralSampler")
	fmt.Fprintln(s.out, "id author ChessPlay Team")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "option name PathIntegralLambda type string default 0.1")
	fmt.Fprintln(s.out, "option name PathIntegralSamples type spin default 50 min 1 max 100000")
	fmt.Fprintln(s.out, "option name PathIntegralRewardMode type combo default hybrid var hybrid var policy var cp_score")
	fmt.Fprintln(s.out, "option name PathIntegralMode type combo default competitive var competitive var quantum_limit")
	fmt.Fprintln(s.out, "option name PathIntegralDebugMode type check default false")
	fmt.Fprintln(s.out, "option name PathIntegralMetricsFile type string default <empty>")
	fmt.Fprintln(s.out, "uciok")
}

func (s *Shell) handleNewGame() {
	s.position = chess.NewPosition()
	s.positionHashes = []uint64{s.position.Hash}
}

// handlePosition parses "position startpos|fen <fen> [moves ...]".
func (s *Shell) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	s.positionHashes = nil
	var moveStart int

	switch args[0] {
	case "startpos":
		s.position = chess.NewPosition()
		moveStart = len(args)
		for i, a := range args {
			if a == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i, a := range args[1:] {
			if a == "moves" {
				fenEnd = i + 1
				break
			}
		}
		pos, err := chess.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string Invalid FEN: %v\n", err)
			return
		}
		s.position = pos
		moveStart = len(args)
		for i, a := range args {
			if a == "moves" {
				moveStart = i + 1
				break
			}
		}
	default:
		return
	}

	s.positionHashes = append(s.positionHashes, s.position.Hash)

	for _, moveStr := range args[moveStart:] {
		move, err := chess.ParseMove(moveStr, s.position)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string Invalid move: %s\n", moveStr)
			return
		}
		s.position.MakeMove(move)
		s.positionHashes = append(s.positionHashes, s.position.Hash)
	}
}

// goOptions holds the parsed arguments of a "go" command.
type goOptions struct {
	Depth     int
	Nodes     int64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

func (s *Shell) handleGo(args []string) {
	opts := parseGoOptions(args)
	limits := s.calculateLimits(opts)

	if s.adapter.HandleMoveRequest(s.position, limits) {
		return
	}

	// PIS declined (disabled, integrity gate, or no legal moves): fall back
	// to the first legal move, matching the engine-less degraded mode.
	legal := s.position.GenerateLegalMoves()
	if legal.Len() > 0 {
		fmt.Fprintf(s.out, "bestmove %s\n", legal.Get(0).String())
	} else {
		fmt.Fprintln(s.out, "bestmove 0000")
	}
}

func parseGoOptions(args []string) goOptions {
	var opts goOptions
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				n, _ := strconv.ParseInt(args[i+1], 10, 64)
				opts.Nodes = n
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}
	return opts
}

// calculateLimits converts goOptions into sampler.SearchLimits. The sampler
// does not enforce these, but they are plumbed through for forward
// compatibility with a future time-aware sampling loop.
func (s *Shell) calculateLimits(opts goOptions) sampler.SearchLimits {
	limits := sampler.SearchLimits{Depth: opts.Depth, Nodes: opts.Nodes}

	if opts.Infinite {
		return limits
	}
	if opts.MoveTime > 0 {
		limits.MoveTimeMs = opts.MoveTime.Milliseconds()
		return limits
	}
	if opts.WTime > 0 || opts.BTime > 0 {
		limits.MoveTimeMs = s.calculateTimeForMove(opts).Milliseconds()
	}
	return limits
}

func (s *Shell) calculateTimeForMove(opts goOptions) time.Duration {
	var ourTime, ourInc time.Duration
	if s.position.SideToMove == chess.White {
		ourTime, ourInc = opts.WTime, opts.WInc
	} else {
		ourTime, ourInc = opts.BTime, opts.BInc
	}

	movesRemaining := opts.MovesToGo
	if movesRemaining == 0 {
		movesRemaining = s.estimateMovesRemaining()
	}

	baseTime := ourTime / time.Duration(movesRemaining)
	moveTime := baseTime + (ourInc * 90 / 100)

	if maxTime := ourTime * 90 / 100; moveTime > maxTime {
		moveTime = maxTime
	}
	if moveTime < 10*time.Millisecond {
		moveTime = 10 * time.Millisecond
	}
	return moveTime
}

func (s *Shell) estimateMovesRemaining() int {
	total := s.position.AllOccupied.PopCount()
	switch {
	case total > 24:
		return 40
	case total > 12:
		return 30
	default:
		return 20
	}
}

func (s *Shell) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	errs := s.controller.UpdateOptions(map[string]string{name: value})
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "info string %v\n", err)
	}
}

func (s *Shell) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := perft(s.position, depth)
	elapsed := time.Since(start)

	fmt.Fprintf(s.out, "Nodes: %d\n", nodes)
	fmt.Fprintf(s.out, "Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Fprintf(s.out, "NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

func perft(pos *chess.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		undo := pos.MakeMove(moves.Get(i))
		nodes += perft(pos, depth-1)
		pos.UnmakeMove(moves.Get(i), undo)
	}
	return nodes
}
