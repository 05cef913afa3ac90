package webhook

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"mechat/internal/domain/models"
)

// unexpectedPrefix starts the answer of replies that match no known shape.
const unexpectedPrefix = "Received unexpected data format. Raw response: "

// Normalize maps a raw webhook reply onto a NormalizedAnswer.
//
// A non-2xx status yields a *BackendError. Every 2xx body yields an answer, whatever it
// contains: bodies that are not JSON become the answer verbatim, and JSON matching none of
// the known shapes is returned stringified.
//
// Normalize performs no I/O and is deterministic.
func Normalize(status int, body []byte) (models.NormalizedAnswer, error) {
	if status < 200 || status > 299 {
		return models.NormalizedAnswer{}, &BackendError{Status: status, Body: string(body)}
	}
	return classify(body).answer(), nil
}

// shape is one recognized reply layout. The set of implementations is closed.
type shape interface {
	answer() models.NormalizedAnswer
}

// textShape: the body was not JSON.
type textShape struct{ raw string }

// arrayOutputShape: [{"output": X}, ...]
type arrayOutputShape struct{ output gjson.Result }

// objectOutputShape: {"output": X}
type objectOutputShape struct{ output gjson.Result }

// nativeShape: {"answer": "...", "sources": [...]}
type nativeShape struct {
	text    string
	sources []models.Source
	modelID string
}

// unexpectedShape: valid JSON of any other layout.
type unexpectedShape struct{ raw string }

func (s textShape) answer() models.NormalizedAnswer {
	return models.NormalizedAnswer{Answer: s.raw, Sources: []models.Source{}, Shape: models.ShapeTextResponse}
}

func (s arrayOutputShape) answer() models.NormalizedAnswer {
	return models.NormalizedAnswer{Answer: stringify(s.output), Sources: []models.Source{}, Shape: models.ShapeArray}
}

func (s objectOutputShape) answer() models.NormalizedAnswer {
	return models.NormalizedAnswer{Answer: stringify(s.output), Sources: []models.Source{}, Shape: models.ShapeObject}
}

func (s nativeShape) answer() models.NormalizedAnswer {
	return models.NormalizedAnswer{
		Answer:  s.text,
		Sources: s.sources,
		Shape:   models.ShapeNative,
		ModelID: s.modelID,
	}
}

func (s unexpectedShape) answer() models.NormalizedAnswer {
	return models.NormalizedAnswer{Answer: unexpectedPrefix + s.raw, Sources: []models.Source{}, Shape: models.ShapeUnexpected}
}

// recognizer inspects a parsed JSON value and reports whether it matches its shape.
type recognizer func(root gjson.Result) (shape, bool)

// recognizers are tried in order; the first match wins.
// Array-wrapped output must come first: the backend wraps single replies in a one-element array.
var recognizers = []recognizer{
	recognizeArrayOutput,
	recognizeObjectOutput,
	recognizeNative,
}

func classify(body []byte) shape {
	if !gjson.ValidBytes(body) {
		return textShape{raw: string(body)}
	}

	root := gjson.ParseBytes(body)
	for _, recognize := range recognizers {
		if s, ok := recognize(root); ok {
			return s
		}
	}
	return unexpectedShape{raw: encode(root)}
}

func recognizeArrayOutput(root gjson.Result) (shape, bool) {
	if !root.IsArray() {
		return nil, false
	}
	items := root.Array()
	if len(items) == 0 || !items[0].IsObject() {
		return nil, false
	}
	output := items[0].Get("output")
	if !output.Exists() {
		return nil, false
	}
	return arrayOutputShape{output: output}, true
}

func recognizeObjectOutput(root gjson.Result) (shape, bool) {
	if !root.IsObject() {
		return nil, false
	}
	output := root.Get("output")
	if !output.Exists() {
		return nil, false
	}
	return objectOutputShape{output: output}, true
}

func recognizeNative(root gjson.Result) (shape, bool) {
	if !root.IsObject() {
		return nil, false
	}
	answer := root.Get("answer")
	if answer.Type != gjson.String {
		return nil, false
	}
	sources := root.Get("sources")
	if sources.Exists() && !sources.IsArray() && sources.Type != gjson.Null {
		return nil, false
	}

	return nativeShape{
		text:    answer.String(),
		sources: readSources(sources),
		modelID: root.Get("rawModelId").String(),
	}, true
}

// readSources converts citation entries field by field. Citations are opaque,
// so a field of an unexpected type is coerced rather than rejecting the reply:
// "3" and 3.0 both become page 3, and a numeric fileId keeps its digits.
func readSources(list gjson.Result) []models.Source {
	sources := []models.Source{}
	if !list.IsArray() {
		return sources
	}
	list.ForEach(func(_, item gjson.Result) bool {
		sources = append(sources, models.Source{
			FileID:  item.Get("fileId").String(),
			Page:    int(item.Get("page").Int()),
			ChunkID: item.Get("chunkId").String(),
		})
		return true
	})
	return sources
}

// stringify returns strings unchanged and any other JSON value re-encoded as
// compact JSON text.
func stringify(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	return encode(v)
}

// encode writes v as compact JSON the way a JavaScript client would print it:
// key order kept, numbers in shortest form (1.0 is 1), escapes in strings decoded.
func encode(v gjson.Result) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v gjson.Result) {
	switch {
	case v.IsObject():
		b.WriteByte('{')
		first := true
		v.ForEach(func(key, value gjson.Result) bool {
			if !first {
				b.WriteByte(',')
			}
			first = false
			writeString(b, key.String())
			b.WriteByte(':')
			writeValue(b, value)
			return true
		})
		b.WriteByte('}')
	case v.IsArray():
		b.WriteByte('[')
		for i, item := range v.Array() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case v.Type == gjson.String:
		writeString(b, v.String())
	case v.Type == gjson.Number:
		b.WriteString(formatNumber(v.Num))
	case v.Type == gjson.True:
		b.WriteString("true")
	case v.Type == gjson.False:
		b.WriteString("false")
	default:
		b.WriteString("null")
	}
}

func writeString(b *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	b.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// formatNumber matches JavaScript number printing for finite values.
func formatNumber(f float64) string {
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		out := strconv.FormatFloat(f, 'e', -1, 64)
		out = strings.Replace(out, "e-0", "e-", 1)
		return strings.Replace(out, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
