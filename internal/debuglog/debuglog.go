// Package debuglog implements the process-wide structured debug log: one
// JSON object per line, sessioned, synchronous. It is the system's
// observability contract, so its wire format is fixed by typed per-event
// structs marshaled with encoding/json to the exact grammar callers depend
// on, rather than routed through a general logging library.
package debuglog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

const noSession = "none"

type logEntry struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Data      any    `json:"data"`
}

type sessionData struct {
	SessionID   string `json:"session_id"`
	PositionFEN string `json:"position_fen"`
}

type sessionEndData struct {
	SessionID          string `json:"session_id"`
	TotalSessionTimeMs int64  `json:"total_session_time_ms"`
}

type samplingStartData struct {
	SessionID        string  `json:"session_id"`
	PositionFEN      string  `json:"position_fen"`
	RequestedSamples int     `json:"requested_samples"`
	LegalMoves       int     `json:"legal_moves"`
	Lambda           float64 `json:"lambda"`
	SamplingMode     string  `json:"sampling_mode"`
	RewardMode       string  `json:"reward_mode,omitempty"`
}

type sampleEvaluationData struct {
	SessionID         string  `json:"session_id"`
	Move              string  `json:"move"`
	SampleNumber      int     `json:"sample_number"`
	Score             float64 `json:"score"`
	EvaluationMethod  string  `json:"evaluation_method"`
	EvaluationTimeMs  float64 `json:"evaluation_time_ms"`
}

type samplingCompleteData struct {
	SessionID            string  `json:"session_id"`
	TotalSamples         int     `json:"total_samples"`
	TotalTimeMs          float64 `json:"total_time_ms"`
	NeuralNetEvaluations int     `json:"neural_net_evaluations"`
	CachedEvaluations    int     `json:"cached_evaluations"`
	HeuristicEvaluations int     `json:"heuristic_evaluations"`
	AvgTimePerSampleMs   float64 `json:"avg_time_per_sample_ms"`
}

// MoveProbability pairs a move string with its softmax probability, for
// move_selection's all_probabilities field.
type MoveProbability struct {
	Move        string  `json:"move"`
	Probability float64 `json:"probability"`
}

type moveSelectionData struct {
	SessionID        string            `json:"session_id"`
	SelectedMove     string            `json:"selected_move"`
	Probability      float64           `json:"probability"`
	Score            float64           `json:"score"`
	AllProbabilities []MoveProbability `json:"all_probabilities"`
}

type neuralNetworkCallData struct {
	SessionID        string  `json:"session_id"`
	CacheHit         bool    `json:"cache_hit"`
	EvaluationTimeMs float64 `json:"evaluation_time_ms"`
	Details          string  `json:"details,omitempty"`
}

type softmaxCalculationData struct {
	SessionID            string    `json:"session_id"`
	Lambda               float64   `json:"lambda"`
	InputScores          []float64 `json:"input_scores"`
	OutputProbabilities  []float64 `json:"output_probabilities"`
}

type messageData struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Logger is the process-wide debug event stream. The zero value is disabled
// and allocation-free on every entry point.
type Logger struct {
	mu sync.Mutex

	enabled      bool
	outputFile   *os.File
	toDiagnostic bool
	diagnostic   io.Writer

	sessionID   string
	positionFEN string
	sessionAt   time.Time
	sessionOn   bool
}

var (
	instance     *Logger
	instanceOnce sync.Once
)

// Instance returns the process-wide singleton logger.
func Instance() *Logger {
	instanceOnce.Do(func() {
		instance = &Logger{toDiagnostic: true, diagnostic: os.Stderr}
	})
	return instance
}

// SetEnabled enables or disables the logger. When disabled, every entry
// point below returns immediately without allocating.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// SetOutputFile opens filename in append mode as an additional sink. An
// empty path clears the file sink.
func (l *Logger) SetOutputFile(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.outputFile != nil {
		l.outputFile.Close()
		l.outputFile = nil
	}
	if filename == "" {
		return nil
	}

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening debug log file %s: %w", filename, err)
	}
	l.outputFile = f
	return nil
}

// SetOutputToDiagnostic toggles the diagnostic-channel sink.
func (l *Logger) SetOutputToDiagnostic(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.toDiagnostic = enabled
}

// StartSession begins a new session, implicitly ending any session already
// active.
func (l *Logger) StartSession(positionFEN string) {
	l.mu.Lock()
	if !l.enabled {
		l.mu.Unlock()
		return
	}
	if l.sessionOn {
		l.mu.Unlock()
		l.EndSession()
		l.mu.Lock()
	}

	l.sessionID = uuid.NewString()
	l.positionFEN = positionFEN
	l.sessionAt = time.Now()
	l.sessionOn = true
	sessionID := l.sessionID
	l.mu.Unlock()

	l.writeLogEntry("session_start", sessionData{SessionID: sessionID, PositionFEN: positionFEN})
}

// EndSession closes the active session, if any.
func (l *Logger) EndSession() {
	l.mu.Lock()
	if !l.enabled || !l.sessionOn {
		l.mu.Unlock()
		return
	}
	sessionID := l.sessionID
	elapsed := time.Since(l.sessionAt).Milliseconds()
	l.sessionOn = false
	l.sessionID = ""
	l.positionFEN = ""
	l.mu.Unlock()

	l.writeLogEntry("session_end", sessionEndData{SessionID: sessionID, TotalSessionTimeMs: elapsed})
}

func (l *Logger) currentSessionID() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.sessionOn {
		return noSession, false
	}
	return l.sessionID, true
}

// LogSamplingStart records the sampling_start event.
func (l *Logger) LogSamplingStart(requestedSamples, legalMoves int, lambda float64, samplingMode, rewardMode, positionFEN string) {
	if !l.IsEnabled() {
		return
	}
	sessionID, active := l.currentSessionID()
	if !active {
		return
	}
	l.writeLogEntry("sampling_start", samplingStartData{
		SessionID:        sessionID,
		PositionFEN:      positionFEN,
		RequestedSamples: requestedSamples,
		LegalMoves:       legalMoves,
		Lambda:           lambda,
		SamplingMode:     samplingMode,
		RewardMode:       rewardMode,
	})
}

// LogSampleEvaluation records the sample_evaluation event.
func (l *Logger) LogSampleEvaluation(move string, sampleNum int, score float64, evalMethod string, evalTimeMs float64) {
	if !l.IsEnabled() {
		return
	}
	sessionID, active := l.currentSessionID()
	if !active {
		return
	}
	l.writeLogEntry("sample_evaluation", sampleEvaluationData{
		SessionID:        sessionID,
		Move:             move,
		SampleNumber:     sampleNum,
		Score:            score,
		EvaluationMethod: evalMethod,
		EvaluationTimeMs: evalTimeMs,
	})
}

// LogSamplingComplete records the sampling_complete event.
func (l *Logger) LogSamplingComplete(totalSamples int, totalTimeMs float64, nnEvals, cachedEvals, heuristicEvals int) {
	if !l.IsEnabled() {
		return
	}
	sessionID, active := l.currentSessionID()
	if !active {
		return
	}
	avg := 0.0
	if totalSamples > 0 {
		avg = totalTimeMs / float64(totalSamples)
	}
	l.writeLogEntry("sampling_complete", samplingCompleteData{
		SessionID:            sessionID,
		TotalSamples:         totalSamples,
		TotalTimeMs:          totalTimeMs,
		NeuralNetEvaluations: nnEvals,
		CachedEvaluations:    cachedEvals,
		HeuristicEvaluations: heuristicEvals,
		AvgTimePerSampleMs:   avg,
	})
}

// LogMoveSelection records the move_selection event.
func (l *Logger) LogMoveSelection(selectedMove string, probability, score float64, allProbabilities []MoveProbability) {
	if !l.IsEnabled() {
		return
	}
	sessionID, active := l.currentSessionID()
	if !active {
		return
	}
	l.writeLogEntry("move_selection", moveSelectionData{
		SessionID:        sessionID,
		SelectedMove:     selectedMove,
		Probability:      probability,
		Score:            score,
		AllProbabilities: allProbabilities,
	})
}

// LogNeuralNetworkCall records the neural_network_call event.
func (l *Logger) LogNeuralNetworkCall(cacheHit bool, evalTimeMs float64, details string) {
	if !l.IsEnabled() {
		return
	}
	sessionID, active := l.currentSessionID()
	if !active {
		return
	}
	l.writeLogEntry("neural_network_call", neuralNetworkCallData{
		SessionID:        sessionID,
		CacheHit:         cacheHit,
		EvaluationTimeMs: evalTimeMs,
		Details:          details,
	})
}

// LogSoftmaxCalculation records the softmax_calculation event.
func (l *Logger) LogSoftmaxCalculation(inputScores []float64, lambda float64, outputProbabilities []float64) {
	if !l.IsEnabled() {
		return
	}
	sessionID, active := l.currentSessionID()
	if !active {
		return
	}
	l.writeLogEntry("softmax_calculation", softmaxCalculationData{
		SessionID:           sessionID,
		Lambda:              lambda,
		InputScores:         inputScores,
		OutputProbabilities: outputProbabilities,
	})
}

// LogWarning, LogError and LogInfo work outside an active session too,
// using the "none" session sentinel.
func (l *Logger) LogWarning(message string) { l.logSessionless("warning", message) }
func (l *Logger) LogError(message string)   { l.logSessionless("error", message) }
func (l *Logger) LogInfo(message string)    { l.logSessionless("info", message) }

func (l *Logger) logSessionless(eventType, message string) {
	if !l.IsEnabled() {
		return
	}
	sessionID, _ := l.currentSessionID()
	l.writeLogEntry(eventType, messageData{SessionID: sessionID, Message: message})
}

func (l *Logger) writeLogEntry(eventType string, data any) {
	entry := logEntry{
		Timestamp: isoTimestamp(time.Now()),
		EventType: eventType,
		Data:      data,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.toDiagnostic {
		l.diagnostic.Write(append(line, '\n'))
	}
	if l.outputFile != nil {
		if _, err := l.outputFile.Write(append(line, '\n')); err != nil {
			fmt.Fprintln(os.Stderr, "PI_DEBUG: failed to write debug log entry:", err)
		}
	}
}

func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
