package engine

// RenameKind is the kind of entity a rename applies to.
type RenameKind string

const (
	KindClass  RenameKind = "class"
	KindMethod RenameKind = "method"
)

// Category is the kind of logging call a name was recovered from.
type Category string

const (
	// CategoryFactory: a logger factory call in a static initializer or
	// constructor, carrying the class name.
	CategoryFactory Category = "factory"

	// CategoryLocation: a log-site setter call, carrying the class name
	// and the enclosing method's name.
	CategoryLocation Category = "location"
)

// RenameEvent records one applied rename.
type RenameEvent struct {
	Seq      int64      `json:"seq"`
	Kind     RenameKind `json:"kind"`
	Category Category   `json:"category"`
	// Class is the class's raw (load-time) name.
	Class string `json:"class"`
	// Method is the method's name before the rename; empty for class
	// renames.
	Method string `json:"method,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
	// Site is the method containing the logging call.
	Site string `json:"site"`
}

// ClassResult is the outcome of processing one class.
type ClassResult struct {
	Class   string        `json:"class"`
	Changed bool          `json:"changed"`
	Events  []RenameEvent `json:"events,omitempty"`
	// Errors holds the non-fatal failures met along the way: decode
	// failures and rejected names.
	Errors []error `json:"-"`
}

// Summary is the outcome of processing every class in a load.
type Summary struct {
	SessionID string        `json:"session_id"`
	Scanned   int           `json:"scanned"`
	Changed   int           `json:"changed"`
	Failed    int           `json:"failed"`
	Events    []RenameEvent `json:"events"`
}
