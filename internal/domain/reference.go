package domain

// RefKind tags how a relation is represented on the raw document.
type RefKind int

const (
	RefAbsent     RefKind = iota // field missing or null
	RefEmbedded                  // value denormalized onto the document
	RefByID                      // single document id
	RefByIDList                  // ordered list of document ids
	RefCollection                // id of a dedicated collection holding the related docs
)

// Ref is a tagged reference decoded once at the document boundary, so
// resolution code switches on Kind instead of re-inspecting raw JSON shapes.
type Ref[T any] struct {
	Kind  RefKind
	ID    string   // RefByID: document id; RefCollection: collection id
	IDs   []string // RefByIDList only
	Value T        // RefEmbedded only
}

func Absent[T any]() Ref[T]           { return Ref[T]{Kind: RefAbsent} }
func Embedded[T any](v T) Ref[T]      { return Ref[T]{Kind: RefEmbedded, Value: v} }
func ByID[T any](id string) Ref[T]    { return Ref[T]{Kind: RefByID, ID: id} }
func ByIDs[T any](ids []string) Ref[T] {
	return Ref[T]{Kind: RefByIDList, IDs: ids}
}
func Collection[T any](id string) Ref[T] { return Ref[T]{Kind: RefCollection, ID: id} }
