package assessments

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

const minPromptLen = 10

const generatedSchemaJSON = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "oneOf": [
          {
            "type": "object",
            "required": ["id", "type", "prompt", "options", "correctIndex"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "type": {"enum": ["mcq"]},
              "prompt": {"type": "string", "minLength": 10},
              "options": {
                "type": "array",
                "minItems": 2,
                "maxItems": 6,
                "items": {"type": "string", "minLength": 1}
              },
              "correctIndex": {"type": "integer", "minimum": 0},
              "explanation": {"type": "string"}
            }
          },
          {
            "type": "object",
            "required": ["id", "type", "prompt", "rubric"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "type": {"enum": ["open"]},
              "prompt": {"type": "string", "minLength": 10},
              "rubric": {
                "type": "object",
                "required": ["keyPoints", "scoring"],
                "properties": {
                  "keyPoints": {
                    "type": "array",
                    "minItems": 2,
                    "items": {"type": "string", "minLength": 2}
                  },
                  "scoring": {"type": "string", "minLength": 5}
                }
              }
            }
          }
        ]
      }
    }
  }
}`

const gradeSchemaJSON = `{
  "type": "object",
  "required": ["score", "reasoning"],
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 1},
    "reasoning": {"type": "string", "minLength": 5},
    "missed_points": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	generatedSchema = mustSchema(generatedSchemaJSON)
	gradeSchema     = mustSchema(gradeSchemaJSON)

	fencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

	errNoJSON = errors.New("no JSON object in provider output")
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("assessments: invalid schema: %v", err))
	}
	return s
}

// extractJSON pulls a JSON object out of free-form model output. Code fences
// are stripped first, then the text between the outermost braces is parsed.
func extractJSON(text string) (map[string]any, error) {
	raw := text
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		raw = m[1]
	}
	var obj map[string]any
	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err == nil {
			return obj, nil
		}
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err == nil && obj != nil {
		return obj, nil
	}
	return nil, errNoJSON
}

func validateAgainst(schema *gojsonschema.Schema, doc map[string]any) error {
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, len(res.Errors()))
	for i, e := range res.Errors() {
		msgs[i] = e.String()
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// generatedQuestion is the provider's view of a question, answer included.
type generatedQuestion struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
	Rubric       *Rubric  `json:"rubric"`
}

// parseGenerated extracts and validates a generated assessment and splits it
// into client-safe questions and the answer key.
func parseGenerated(text string) (Questions, []AnswerKeyEntry, error) {
	doc, err := extractJSON(text)
	if err != nil {
		return nil, nil, err
	}
	if err := validateAgainst(generatedSchema, doc); err != nil {
		return nil, nil, err
	}

	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, err
	}
	var payload struct {
		Questions []generatedQuestion `json:"questions"`
	}
	if err := json.Unmarshal(buf, &payload); err != nil {
		return nil, nil, err
	}

	questions := make(Questions, 0, len(payload.Questions))
	key := make([]AnswerKeyEntry, 0, len(payload.Questions))
	seen := make(map[string]bool, len(payload.Questions))
	for i, g := range payload.Questions {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			return nil, nil, fmt.Errorf("questions[%d]: empty id", i)
		}
		if n := utf8.RuneCountInString(strings.TrimSpace(g.Prompt)); n < minPromptLen {
			return nil, nil, fmt.Errorf("questions[%d]: prompt shorter than %d characters", i, minPromptLen)
		}
		if seen[id] {
			return nil, nil, fmt.Errorf("questions[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
		switch g.Type {
		case TypeMCQ:
			if g.CorrectIndex >= len(g.Options) {
				return nil, nil, fmt.Errorf("questions[%d]: correctIndex %d out of range", i, g.CorrectIndex)
			}
			questions = append(questions, MCQ{ID: id, Prompt: strings.TrimSpace(g.Prompt), Options: trimAll(g.Options)})
			key = append(key, AnswerKeyEntry{ID: id, CorrectIndex: g.CorrectIndex, Explanation: strings.TrimSpace(g.Explanation)})
		case TypeOpen:
			rubric := Rubric{KeyPoints: trimAll(g.Rubric.KeyPoints), Scoring: strings.TrimSpace(g.Rubric.Scoring)}
			questions = append(questions, Open{ID: id, Prompt: strings.TrimSpace(g.Prompt), Rubric: rubric})
		default:
			return nil, nil, fmt.Errorf("questions[%d]: %w %q", i, ErrUnknownQuestion, g.Type)
		}
	}
	return questions, key, nil
}

// openGrade is the provider's verdict on one open answer.
type openGrade struct {
	Score        float64  `json:"score"`
	Reasoning    string   `json:"reasoning"`
	MissedPoints []string `json:"missed_points"`
}

func parseGrade(text string) (openGrade, error) {
	doc, err := extractJSON(text)
	if err != nil {
		return openGrade{}, err
	}
	if err := validateAgainst(gradeSchema, doc); err != nil {
		return openGrade{}, err
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return openGrade{}, err
	}
	var g openGrade
	if err := json.Unmarshal(buf, &g); err != nil {
		return openGrade{}, err
	}
	g.Reasoning = strings.TrimSpace(g.Reasoning)
	return g, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
