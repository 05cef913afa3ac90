package models

// ShapeTag names which known webhook reply shape produced a NormalizedAnswer.
// It is diagnostic only.
type ShapeTag string

const (
	ShapeArray        ShapeTag = "array"
	ShapeObject       ShapeTag = "object"
	ShapeNative       ShapeTag = "native"
	ShapeTextResponse ShapeTag = "text-response"
	ShapeUnexpected   ShapeTag = "unexpected"
)

// NormalizedAnswer is the single internal representation of a webhook reply.
// Sources is never nil.
type NormalizedAnswer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Shape   ShapeTag `json:"shape"`
	ModelID string   `json:"model_id,omitempty"`
}
