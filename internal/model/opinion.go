package model

// Opinion is a reader-submitted opinion. Opinions are persisted in a
// flat JSON file, newest first.
type Opinion struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
	// Fecha is the submission timestamp in RFC 3339 form. Stamped by
	// the store when the client omits it.
	Fecha string `json:"fecha"`
}
