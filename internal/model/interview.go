package model

// BilingualText carries the Spanish and English renditions of a text.
type BilingualText struct {
	ES string `json:"ES"`
	EN string `json:"EN"`
}

// Interview is a video interview stored as a JSON document plus a
// video object under the entrevistas/ prefix of the interviews bucket.
type Interview struct {
	ID          string        `json:"id"`
	Titulo      BilingualText `json:"titulo"`
	Descripcion BilingualText `json:"descripcion"`
	// Fecha is the human-facing date; FechaISO is the ISO 8601 date
	// used for ordering (lexicographic sort is valid for ISO dates).
	Fecha    string `json:"fecha"`
	FechaISO string `json:"fechaISO"`
	Likes    int    `json:"likes"`
	VideoURL string `json:"videoUrl"`
}
