package catalog

// NotFound is how an unresolved term is shown to people. It is never used as a lookup key.
const NotFound = "Product Not Found"

type MatchMethod string

const (
	MatchExact           MatchMethod = "exact"
	MatchCaseInsensitive MatchMethod = "case_insensitive"
	MatchModel           MatchMethod = "model"
	MatchNone            MatchMethod = "none"
)

// Resolution is the outcome of mapping one free-text term to the catalog.
type Resolution struct {
	Term     string      `json:"term"`
	Name     string      `json:"name,omitempty"`
	Resolved bool        `json:"resolved"`
	Method   MatchMethod `json:"method"`
}

func Unresolved(term string) Resolution {
	return Resolution{Term: term, Method: MatchNone}
}

func resolved(term, name string, method MatchMethod) Resolution {
	return Resolution{Term: term, Name: name, Resolved: true, Method: method}
}

// Display renders the canonical name, or NotFound.
func (r Resolution) Display() string {
	if !r.Resolved {
		return NotFound
	}
	return r.Name
}
