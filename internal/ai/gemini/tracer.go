package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/ai"
	"github.com/jayeshwarhadi/HireLens/internal/trace"
	"github.com/jayeshwarhadi/HireLens/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type sourceCacher interface {
	EnsureSourceCache(ctx context.Context, sourceID, displayName, source string) (string, error)
	GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error)
}

// Tracer asks Gemini to execute source code mentally and emit the step trace
// the visualizer plays back.
type Tracer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// NewTracer creates a Tracer on top of a content generator.
func NewTracer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Tracer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tracer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Analyze implements ai.Analyzer.
func (t *Tracer) Analyze(ctx context.Context, req *ai.Request) (*trace.Sequence, error) {
	if req == nil {
		return nil, fmt.Errorf("analysis request is required")
	}
	source := strings.TrimSpace(req.SourceCode)
	if source == "" {
		return nil, fmt.Errorf("source code is required")
	}

	prompt := buildPrompt(source, req.KindHint, req.Input)

	t.logger.Debug("gemini trace request",
		zap.String("kind_hint", string(req.KindHint)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, t.maxLogLen)),
	)

	raw, err := t.generate(ctx, req, prompt, source)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("gemini trace response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, t.maxLogLen)),
	)

	seq, err := parseTrace(raw, req.KindHint)
	if err != nil {
		return nil, err
	}

	t.logger.Info("trace produced",
		zap.String("kind", string(seq.Kind)),
		zap.Int("steps", seq.Len()),
	)

	return seq, nil
}

func (t *Tracer) generate(ctx context.Context, req *ai.Request, prompt, source string) (string, error) {
	cacher, ok := t.generator.(sourceCacher)
	if !ok || strings.TrimSpace(req.CacheKey) == "" {
		return t.generator.GenerateContent(ctx, prompt)
	}

	cacheName, err := cacher.EnsureSourceCache(ctx, req.CacheKey, "", source)
	if err != nil {
		t.logger.Debug("source cache unavailable, sending inline", zap.Error(err))
		return t.generator.GenerateContent(ctx, prompt)
	}
	return cacher.GenerateContentWithCache(ctx, prompt, cacheName)
}

func buildPrompt(source string, hint trace.Kind, input string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Source:\n{{SOURCE_CODE}}\n\nStructure: {{STRUCTURE_KIND}}\nInput: {{INPUT_DESCRIPTION}}\n\nJSON steps:"
	}

	kind := string(hint)
	if kind == "" {
		kind = "auto-detect"
	}
	if input = strings.TrimSpace(input); input == "" {
		input = "choose a small representative input"
	}

	prompt := strings.ReplaceAll(template, "{{SOURCE_CODE}}", source)
	prompt = strings.ReplaceAll(prompt, "{{STRUCTURE_KIND}}", kind)
	prompt = strings.ReplaceAll(prompt, "{{INPUT_DESCRIPTION}}", input)
	return prompt
}

type stepPayload struct {
	Line        any            `mapstructure:"line"`
	Narrative   string         `mapstructure:"narrative"`
	Description string         `mapstructure:"description"`
	State       any            `mapstructure:"state"`
	Structural  any            `mapstructure:"structural_state"`
	Annotations map[string]any `mapstructure:"annotations"`
	Pointers    map[string]any `mapstructure:"pointers"`
}

type tracePayload struct {
	Kind  string `mapstructure:"kind"`
	Steps []any  `mapstructure:"steps"`
}

// parseTrace converts the model's JSON into a sequence. The response shape is
// loose by nature: steps may arrive as a bare array or under a "steps" key,
// the structural state may be a pre-serialized string, and any field may be
// missing. Absent annotation sets mean empty sets.
func parseTrace(raw string, hint trace.Kind) (*trace.Sequence, error) {
	cleaned := extractJSON(raw)

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var rawSteps []any
	kind := hint
	switch v := decoded.(type) {
	case []any:
		rawSteps = v
	case map[string]any:
		var payload tracePayload
		if err := mapstructure.Decode(v, &payload); err != nil {
			return nil, fmt.Errorf("decode gemini response: %w", err)
		}
		rawSteps = payload.Steps
		if declared := trace.ParseKind(payload.Kind); declared != trace.KindUnknown {
			kind = declared
		}
	default:
		return nil, fmt.Errorf("unexpected gemini response shape")
	}

	steps := make([]trace.Step, 0, len(rawSteps))
	payloads := make([]stepPayload, 0, len(rawSteps))
	for _, rawStep := range rawSteps {
		m, ok := rawStep.(map[string]any)
		if !ok {
			continue
		}
		var payload stepPayload
		if err := mapstructure.Decode(m, &payload); err != nil {
			continue
		}
		payloads = append(payloads, payload)
	}

	// The structural kind is fixed for the whole sequence. Settle it on the
	// first interpretable snapshot, then parse every snapshot with that tag.
	for _, payload := range payloads {
		if st := trace.ParseState(payload.stateRaw(), kind); st != nil {
			kind = st.Kind
			break
		}
	}

	for _, payload := range payloads {
		step := trace.Step{
			Line:        coerceInt(payload.Line),
			Narrative:   payload.narrative(),
			State:       trace.ParseState(payload.stateRaw(), kind),
			Annotations: parseAnnotations(payload.Annotations),
			Pointers:    parsePointers(payload.Pointers),
		}
		steps = append(steps, step)
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("gemini response contained no usable steps")
	}

	return trace.NewSequence(kind, steps), nil
}

func (p stepPayload) stateRaw() any {
	if p.State != nil {
		return p.State
	}
	return p.Structural
}

func (p stepPayload) narrative() string {
	if s := strings.TrimSpace(p.Narrative); s != "" {
		return s
	}
	return strings.TrimSpace(p.Description)
}

func parseAnnotations(m map[string]any) trace.Annotations {
	return trace.Annotations{
		Active:   stringList(m["active"]),
		Compared: stringList(m["compared"]),
		Modified: stringList(m["modified"]),
	}
}

func parsePointers(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for label, v := range m {
		label = strings.TrimSpace(label)
		target := coerceString(v)
		if label == "" || target == "" {
			continue
		}
		out[label] = target
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		if s := coerceString(el); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
